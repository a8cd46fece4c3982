// Package result provides the uniform success/data/error envelope used at
// component boundaries. Fallible operations are wrapped so that no error
// crosses a boundary as an unhandled failure.
package result

import "github.com/rs/zerolog/log"

// Result is the envelope for one fallible operation.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Ok returns a successful result carrying data.
func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail returns a failed result carrying the error message.
func Fail[T any](err error) Result[T] {
	var zero T
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Result[T]{Success: false, Data: zero, Error: msg}
}

// Do runs an operation returning (T, error) and folds it into a Result.
// Failures are logged with the operation name.
func Do[T any](name string, op func() (T, error)) Result[T] {
	data, err := op()
	if err != nil {
		log.Error().Err(err).Str("operation", name).Msg("Operation failed")
		return Fail[T](err)
	}
	return Ok(data)
}

// DoErr runs an operation returning only an error and folds it into a
// Result[struct{}].
func DoErr(name string, op func() error) Result[struct{}] {
	if err := op(); err != nil {
		log.Error().Err(err).Str("operation", name).Msg("Operation failed")
		return Fail[struct{}](err)
	}
	return Ok(struct{}{})
}
