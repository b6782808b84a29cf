package errors

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// Markers for the error taxonomy. Use Mark from the builder to attach one,
// and errors.Is to test for it.
var (
	ErrValidation    = errors.New("validation error")
	ErrNotActionable = errors.New("not actionable")
	ErrFetch         = errors.New("fetch error")
	ErrTransform     = errors.New("transform error")
	ErrUnsupported   = errors.New("unsupported type")
	ErrWrite         = errors.New("write error")
	ErrSystem        = errors.New("system error")

	// maps errors to http status codes
	statusCodeMap = map[error]int{
		ErrValidation: http.StatusBadRequest,
		ErrSystem:     http.StatusInternalServerError,
	}
)

func Is(err, reference error) bool {
	return errors.Is(err, reference)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotActionable reports events that carry nothing to process, such as
// the test notification a bucket emits when notifications are configured.
func IsNotActionable(err error) bool {
	return errors.Is(err, ErrNotActionable)
}

func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}

func HTTPStatusFromErr(err error) int {
	for e, status := range statusCodeMap {
		if errors.Is(err, e) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// DisplayMessage returns the hint attached to err, falling back to its message.
func DisplayMessage(err error) string {
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		return hints[0]
	}
	return err.Error()
}
