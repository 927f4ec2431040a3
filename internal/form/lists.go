package form

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned by ReplaceAt and RemoveAt
var ErrIndexOutOfRange = errors.New("list index out of range")

// ReplaceAt returns a new slice equal to list with element i replaced by v
func ReplaceAt[E any](list []E, i int, v E) ([]E, error) {
	if i < 0 || i >= len(list) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(list))
	}
	out := make([]E, len(list))
	copy(out, list)
	out[i] = v
	return out, nil
}

// ReplaceByID returns a new slice with the element whose id matches replaced
// by v. The second return is false when no element matches.
func ReplaceByID[E any](list []E, id string, idOf func(E) string, v E) ([]E, bool) {
	for i, e := range list {
		if idOf(e) == id {
			out, _ := ReplaceAt(list, i, v)
			return out, true
		}
	}
	return list, false
}

// Append returns a new slice with v added at the end
func Append[E any](list []E, v E) []E {
	out := make([]E, len(list), len(list)+1)
	copy(out, list)
	return append(out, v)
}

// RemoveAt returns a new slice without element i
func RemoveAt[E any](list []E, i int) ([]E, error) {
	if i < 0 || i >= len(list) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(list))
	}
	out := make([]E, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...), nil
}
