// Package reorder provides the ordered-list move primitive behind
// drag-and-drop question ordering.
package reorder

import "fmt"

// IndexError reports an out-of-range move index. It is a programmer error,
// not a recoverable user-facing condition.
type IndexError struct {
	Index  int
	Length int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("reorder index %d out of range [0,%d)", e.Index, e.Length)
}

// Move returns a copy of seq with the element at from reinserted at to,
// preserving the relative order of all other elements. The destination index
// is interpreted against the sequence after removal, so
// Move([A,B,C,D], 0, 2) yields [B,C,A,D]. from == to returns an equal copy.
func Move[T any](seq []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(seq) {
		return nil, &IndexError{Index: from, Length: len(seq)}
	}
	if to < 0 || to >= len(seq) {
		return nil, &IndexError{Index: to, Length: len(seq)}
	}

	out := make([]T, 0, len(seq))
	out = append(out, seq...)
	if from == to {
		return out, nil
	}

	moved := out[from]
	out = append(out[:from], out[from+1:]...)

	out = append(out, moved)
	copy(out[to+1:], out[to:])
	out[to] = moved
	return out, nil
}
