package gosam

import (
	"errors"
	"fmt"
)

// CheiralityError reports a 3D point with non-positive depth in the camera
// frame. Projecting such a point is undefined, so the current linearization
// point is invalid and the caller must handle it.
type CheiralityError struct {
	Depth float64
}

func (e CheiralityError) Error() string {
	return fmt.Sprintf("cheirality violation: point depth %g is not positive", e.Depth)
}

// IsCheirality returns whether the error chain contains a CheiralityError.
func IsCheirality(err error) bool {
	var c CheiralityError
	return errors.As(err, &c)
}

// MissingKeyError reports a factor referencing a key absent from the Values it
// was evaluated against.
type MissingKeyError struct {
	Key Key
}

func (e MissingKeyError) Error() string {
	return fmt.Sprintf("variable %s not found in values", e.Key)
}

// TypeMismatchError reports a value or factor of an unexpected concrete type.
type TypeMismatchError struct {
	Key      Key
	Expected string
	Got      string
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("variable %s: expected %s, got %s", e.Key, e.Expected, e.Got)
}

// DuplicateKeyError reports an insertion of an already present key.
type DuplicateKeyError struct {
	Key Key
}

func (e DuplicateKeyError) Error() string {
	return fmt.Sprintf("variable %s already present in values", e.Key)
}
