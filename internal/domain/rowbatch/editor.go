// Package rowbatch applies single-cell and clipboard batch edits to an
// ordered row list. Every operation returns a new list and leaves its input
// untouched.
package rowbatch

import (
	"errors"
	"fmt"

	"github.com/garyjia/invoice-intake/internal/domain/clipboard"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
)

var (
	// ErrRowOutOfRange is returned when a single-cell edit targets a missing row
	ErrRowOutOfRange = errors.New("row index out of range")

	// ErrUnknownField is returned when a setter does not know the field
	ErrUnknownField = errors.New("unknown field")
)

// SetFunc writes value into field of row
type SetFunc[T any] func(row *T, field entity.Field, value string) error

// Editor edits rows of type T through a field setter
type Editor[T any] struct {
	set    SetFunc[T]
	newRow func() T
	clone  func(T) T
}

// Option configures an Editor
type Option[T any] func(*Editor[T])

// WithClone sets a deep copy function for rows holding pointers
func WithClone[T any](clone func(T) T) Option[T] {
	return func(e *Editor[T]) {
		e.clone = clone
	}
}

// New creates an editor. newRow builds the blank row appended when a batch
// runs past the end of the list.
func New[T any](set SetFunc[T], newRow func() T, opts ...Option[T]) *Editor[T] {
	e := &Editor[T]{
		set:    set,
		newRow: newRow,
		clone:  func(v T) T { return v },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetCell returns a copy of rows with field of row index set to value
func (e *Editor[T]) SetCell(rows []T, index int, field entity.Field, value string) ([]T, error) {
	if index < 0 || index >= len(rows) {
		return rows, fmt.Errorf("%w: %d of %d", ErrRowOutOfRange, index, len(rows))
	}

	out := e.copyRows(rows, len(rows))
	if err := e.set(&out[index], field, value); err != nil {
		return rows, err
	}
	return out, nil
}

// ApplyBatch merges a parsed paste into a copy of rows. The result has
// max(len(rows), last pasted index + 1) entries; fields missing from a paste
// row keep their current value. On error the input list is returned as is.
func (e *Editor[T]) ApplyBatch(rows []T, paste clipboard.Paste) ([]T, error) {
	if paste.IsEmpty() {
		return rows, nil
	}

	if paste.Kind == clipboard.KindScalar {
		r := paste.Rows[0]
		return e.SetCell(rows, r.Index, paste.Column, r.Values[paste.Column])
	}

	size := len(rows)
	if last := paste.LastIndex() + 1; last > size {
		size = last
	}

	out := e.copyRows(rows, size)
	for _, r := range paste.Rows {
		for _, field := range orderedFields(paste, r) {
			if err := e.set(&out[r.Index], field, r.Values[field]); err != nil {
				return rows, fmt.Errorf("row %d: %w", r.Index, err)
			}
		}
	}
	return out, nil
}

// Append returns a copy of rows with one blank row added
func (e *Editor[T]) Append(rows []T) []T {
	return e.copyRows(rows, len(rows)+1)
}

// Blank returns a list holding a single blank row
func (e *Editor[T]) Blank() []T {
	return []T{e.newRow()}
}

func (e *Editor[T]) copyRows(rows []T, size int) []T {
	out := make([]T, size)
	for i := range rows {
		out[i] = e.clone(rows[i])
	}
	for i := len(rows); i < size; i++ {
		out[i] = e.newRow()
	}
	return out
}

// orderedFields yields the primary field first so setter errors are
// reported against the column the user pasted into.
func orderedFields(paste clipboard.Paste, r clipboard.Row) []entity.Field {
	fields := make([]entity.Field, 0, len(r.Values))
	if _, ok := r.Values[paste.Primary]; ok {
		fields = append(fields, paste.Primary)
	}
	if paste.Secondary != "" && paste.Secondary != paste.Primary {
		if _, ok := r.Values[paste.Secondary]; ok {
			fields = append(fields, paste.Secondary)
		}
	}
	for f := range r.Values {
		if f != paste.Primary && f != paste.Secondary {
			fields = append(fields, f)
		}
	}
	return fields
}
