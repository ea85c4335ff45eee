package limits

import (
	"encoding/json"
	"fmt"

	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
)

// Result carries a decision and the error that prevented it, if any.
// Data is the zero value whenever Err is set.
type Result[T any] struct {
	Data T
	Err  error
}

// OK reports whether the operation completed without error.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// MarshalJSON renders {"data": ..., "error": "message"|null}.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	var msg *string
	if r.Err != nil {
		text := errorMessage(r.Err)
		msg = &text
	}
	return json.Marshal(struct {
		Data  T       `json:"data"`
		Error *string `json:"error"`
	}{Data: r.Data, Error: msg})
}

func errorMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return typed.Message()
	}
	return err.Error()
}

// contain runs fn and converts both errors and panics into a Result.
func contain[T any](fn func() (T, error)) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			res = Result[T]{Data: zero, Err: pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("limit check failed: %v", r))}
		}
	}()
	data, err := fn()
	if err != nil {
		var zero T
		return Result[T]{Data: zero, Err: err}
	}
	return Result[T]{Data: data}
}
