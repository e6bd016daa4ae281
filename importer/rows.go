package importer

import "github.com/Dosada05/tournament-registration/models"

// RowResult is the outcome of validating one row: either Accepted is set, or
// Rejected holds at least one error.
type RowResult[T any] struct {
	Accepted *T
	Rejected []models.ValidationError
}

func accept[T any](v T) RowResult[T] {
	return RowResult[T]{Accepted: &v}
}

// Result collects the outcome of a whole batch.
type Result[T any] struct {
	Items          []T
	Errors         []models.ValidationError
	TotalRows      int
	RowsWithErrors int
	Capacity       models.CapacityInfo
}

// Valid reports whether every row was accepted.
func (r *Result[T]) Valid() bool {
	return len(r.Errors) == 0
}

func (r *Result[T]) add(res RowResult[T]) {
	if res.Accepted != nil {
		r.Items = append(r.Items, *res.Accepted)
		return
	}
	r.Errors = append(r.Errors, res.Rejected...)
	r.RowsWithErrors++
}

// rowErrors accumulates errors for a single row.
type rowErrors struct {
	row  int
	errs []models.ValidationError
}

func (e *rowErrors) add(field, message, value string) {
	e.errs = append(e.errs, models.ValidationError{
		Row:     e.row,
		Field:   field,
		Message: message,
		Value:   value,
	})
}

func (e *rowErrors) empty() bool {
	return len(e.errs) == 0
}

func reject[T any](e *rowErrors) RowResult[T] {
	return RowResult[T]{Rejected: e.errs}
}
