package gosam

import (
	"fmt"
	"strings"
)

// Value is a manifold-valued variable. Retract applies a small step expressed
// in the tangent space at the current value, and LocalCoordinates is its
// approximate inverse: v.LocalCoordinates(v.Retract(δ)) ≈ δ for small δ.
// These two operations are the only bridge between the Euclidean linear
// algebra of the solver and the manifold-valued state; no optimizer code
// mutates a variable except through Retract.
type Value interface {
	Dim() int
	Retract(δ []float64) Value
	LocalCoordinates(other Value) []float64
	Equals(other Value, tol float64) bool
}

// Values maps keys to manifold values of heterogeneous types. Every key holds
// one fixed type for its lifetime.
type Values struct {
	values map[Key]Value
}

// NewValues returns an empty container.
func NewValues() Values {
	return Values{values: make(map[Key]Value)}
}

// Size returns the number of variables.
func (v Values) Size() int { return len(v.values) }

// Exists returns whether the key is present.
func (v Values) Exists(key Key) bool {
	_, ok := v.values[key]
	return ok
}

// Insert adds a new variable. Inserting an existing key is an error: variables
// are identified once and never rebound.
func (v Values) Insert(key Key, val Value) error {
	if _, ok := v.values[key]; ok {
		return DuplicateKeyError{key}
	}
	v.values[key] = val
	return nil
}

// At returns the variable for the given key.
func (v Values) At(key Key) (Value, error) {
	val, ok := v.values[key]
	if !ok {
		return nil, MissingKeyError{key}
	}
	return val, nil
}

// AtPose2 returns the Pose2 stored under key.
func (v Values) AtPose2(key Key) (Pose2, error) {
	val, err := v.At(key)
	if err != nil {
		return Pose2{}, err
	}
	p, ok := val.(Pose2)
	if !ok {
		return Pose2{}, TypeMismatchError{key, "Pose2", fmt.Sprintf("%T", val)}
	}
	return p, nil
}

// AtPose3 returns the Pose3 stored under key.
func (v Values) AtPose3(key Key) (Pose3, error) {
	val, err := v.At(key)
	if err != nil {
		return Pose3{}, err
	}
	p, ok := val.(Pose3)
	if !ok {
		return Pose3{}, TypeMismatchError{key, "Pose3", fmt.Sprintf("%T", val)}
	}
	return p, nil
}

// AtPoint2 returns the Point2 stored under key.
func (v Values) AtPoint2(key Key) (Point2, error) {
	val, err := v.At(key)
	if err != nil {
		return Point2{}, err
	}
	p, ok := val.(Point2)
	if !ok {
		return Point2{}, TypeMismatchError{key, "Point2", fmt.Sprintf("%T", val)}
	}
	return p, nil
}

// AtPoint3 returns the Point3 stored under key.
func (v Values) AtPoint3(key Key) (Point3, error) {
	val, err := v.At(key)
	if err != nil {
		return Point3{}, err
	}
	p, ok := val.(Point3)
	if !ok {
		return Point3{}, TypeMismatchError{key, "Point3", fmt.Sprintf("%T", val)}
	}
	return p, nil
}

// Keys returns all keys in ascending order.
func (v Values) Keys() []Key {
	keys := make([]Key, 0, len(v.values))
	for k := range v.values {
		keys = append(keys, k)
	}
	return sortKeys(keys)
}

// Retract applies a per-variable tangent update and returns the new Values.
// Keys absent from delta pass through unchanged. The receiver is not mutated.
func (v Values) Retract(delta VectorValues) (Values, error) {
	out := NewValues()
	for k, val := range v.values {
		δ, ok := delta.At(k)
		if !ok {
			out.values[k] = val
			continue
		}
		if len(δ) != val.Dim() {
			return Values{}, fmt.Errorf("retract %s: tangent dimension %d does not match variable dimension %d", k, len(δ), val.Dim())
		}
		out.values[k] = val.Retract(δ)
	}
	return out, nil
}

// LocalCoordinates returns the per-variable tangent vectors mapping this
// container to other. Both must hold the same keys.
func (v Values) LocalCoordinates(other Values) (VectorValues, error) {
	out := NewVectorValues()
	for k, val := range v.values {
		o, ok := other.values[k]
		if !ok {
			return VectorValues{}, MissingKeyError{k}
		}
		out.Insert(k, val.LocalCoordinates(o))
	}
	return out, nil
}

// Equals returns whether both containers hold the same keys with values
// matching within tol.
func (v Values) Equals(other Values, tol float64) bool {
	if len(v.values) != len(other.values) {
		return false
	}
	for k, val := range v.values {
		o, ok := other.values[k]
		if !ok || !val.Equals(o, tol) {
			return false
		}
	}
	return true
}

func (v Values) String() string {
	var sb strings.Builder
	for _, k := range v.Keys() {
		fmt.Fprintf(&sb, "%s: %v\n", k, v.values[k])
	}
	return sb.String()
}
