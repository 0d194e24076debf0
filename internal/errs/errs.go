package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type BadInputError struct {
	Msg string
}

func (e BadInputError) Error() string {
	return fmt.Sprintf("bad input: %s", e.Msg)
}

// UpstreamError means the news service did not answer with success.
type UpstreamError struct {
	Service string
	Err     error
}

func (e UpstreamError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e UpstreamError) Unwrap() error {
	return e.Err
}

type GenerationError struct {
	Step string
	Err  error
}

func (e GenerationError) Error() string {
	return fmt.Sprintf("generation failed at %s: %v", e.Step, e.Err)
}

func (e GenerationError) Unwrap() error {
	return e.Err
}

type ConfigurationError struct {
	Missing []string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// StatusCode maps an error kind to the HTTP status returned to callers.
// Everything except bad input is reported as a generic server failure.
func StatusCode(err error) int {
	var bad BadInputError
	if errors.As(err, &bad) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
