package gosam

import (
	"fmt"
	"math"
	"strings"
)

// VectorValues maps keys to fixed-size tangent vectors. It represents either
// a linear-system correction (one iteration) or a dual-variable assignment
// (one constrained run).
type VectorValues struct {
	vectors map[Key][]float64
}

// NewVectorValues returns an empty container.
func NewVectorValues() VectorValues {
	return VectorValues{vectors: make(map[Key][]float64)}
}

// Size returns the number of vectors.
func (vv VectorValues) Size() int { return len(vv.vectors) }

// Exists returns whether the key is present.
func (vv VectorValues) Exists(key Key) bool {
	_, ok := vv.vectors[key]
	return ok
}

// Insert stores a vector under key, replacing any previous entry.
func (vv VectorValues) Insert(key Key, vec []float64) {
	vv.vectors[key] = vec
}

// At returns the vector stored under key.
func (vv VectorValues) At(key Key) ([]float64, bool) {
	vec, ok := vv.vectors[key]
	return vec, ok
}

// Keys returns all keys in ascending order.
func (vv VectorValues) Keys() []Key {
	keys := make([]Key, 0, len(vv.vectors))
	for k := range vv.vectors {
		keys = append(keys, k)
	}
	return sortKeys(keys)
}

// Add returns the entrywise sum of both containers, which must hold the same
// keys with matching dimensions.
func (vv VectorValues) Add(other VectorValues) (VectorValues, error) {
	out := NewVectorValues()
	for k, vec := range vv.vectors {
		o, ok := other.vectors[k]
		if !ok {
			return VectorValues{}, MissingKeyError{k}
		}
		if len(o) != len(vec) {
			return VectorValues{}, fmt.Errorf("add %s: dimensions %d and %d differ", k, len(vec), len(o))
		}
		sum := make([]float64, len(vec))
		for i := range vec {
			sum[i] = vec[i] + o[i]
		}
		out.vectors[k] = sum
	}
	return out, nil
}

// Scale returns a copy with every entry multiplied by s.
func (vv VectorValues) Scale(s float64) VectorValues {
	out := NewVectorValues()
	for k, vec := range vv.vectors {
		scaled := make([]float64, len(vec))
		for i := range vec {
			scaled[i] = s * vec[i]
		}
		out.vectors[k] = scaled
	}
	return out
}

// Norm returns the Euclidean norm over all entries.
func (vv VectorValues) Norm() float64 {
	var sum float64
	for _, vec := range vv.vectors {
		for _, x := range vec {
			sum += x * x
		}
	}
	return math.Sqrt(sum)
}

// TotalDim returns the summed dimension of all vectors.
func (vv VectorValues) TotalDim() int {
	var n int
	for _, vec := range vv.vectors {
		n += len(vec)
	}
	return n
}

func (vv VectorValues) String() string {
	var sb strings.Builder
	for _, k := range vv.Keys() {
		fmt.Fprintf(&sb, "%s: %v\n", k, vv.vectors[k])
	}
	return sb.String()
}
