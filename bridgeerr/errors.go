package bridgeerr

import "errors"

// Error categories. Specific errors of other packages wrap exactly one of them,
// so callers can branch with errors.Is on either level.
var (
	ErrValidation     = errors.New("validation error")
	ErrAuthorization  = errors.New("authorization error")
	ErrReplay         = errors.New("replay error")
	ErrDepositLimit   = errors.New("deposit limit error")
	ErrExecutionLimit = errors.New("execution limit error")
	ErrMalformedInput = errors.New("malformed input")
)

var categories = []error{
	ErrValidation,
	ErrAuthorization,
	ErrReplay,
	ErrDepositLimit,
	ErrExecutionLimit,
	ErrMalformedInput,
}

// Category returns the category sentinel wrapped by err, or nil for
// infrastructure errors (storage, collaborators) that carry no category.
func Category(err error) error {
	for _, c := range categories {
		if errors.Is(err, c) {
			return c
		}
	}
	return nil
}

// Label is a short metric-friendly name of the error category.
func Label(err error) string {
	switch Category(err) {
	case ErrValidation:
		return "validation"
	case ErrAuthorization:
		return "authorization"
	case ErrReplay:
		return "replay"
	case ErrDepositLimit:
		return "deposit_limit"
	case ErrExecutionLimit:
		return "execution_limit"
	case ErrMalformedInput:
		return "malformed_input"
	}
	if err == nil {
		return "ok"
	}
	return "internal"
}
