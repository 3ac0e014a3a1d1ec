package gosam

import (
	"fmt"
	"sort"
)

// Key identifies a single variable in a Values container. Keys are opaque,
// totally ordered and stable for the lifetime of an optimization run.
type Key uint64

const symbolShift = 56

// Symbol builds a key from a printable character and an index, e.g.
// Symbol('x', 1) for the first pose or Symbol('l', 3) for the third landmark.
func Symbol(c byte, j uint64) Key {
	return Key(uint64(c)<<symbolShift | (j & (1<<symbolShift - 1)))
}

// Chr returns the character part of a symbol key.
func (k Key) Chr() byte {
	return byte(k >> symbolShift)
}

// Index returns the index part of a symbol key.
func (k Key) Index() uint64 {
	return uint64(k) & (1<<symbolShift - 1)
}

// String prints symbol keys as "x1" and plain keys as their decimal value.
func (k Key) String() string {
	if c := k.Chr(); c >= 'A' && c <= 'z' {
		return fmt.Sprintf("%c%d", c, k.Index())
	}
	return fmt.Sprintf("%d", uint64(k))
}

// sortKeys sorts a key slice in ascending order, in place, and returns it.
func sortKeys(keys []Key) []Key {
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
