package kis

import (
	"errors"
	"fmt"
)

// TransientError marks a failure worth retrying within the same cycle:
// timeouts, connection resets, 5xx responses, rate limiting.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("kis: transient %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// AuthError marks a credential or token failure. Retrying without operator
// intervention cannot succeed, so the cycle aborts.
type AuthError struct {
	Msg string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("kis: auth: %s", e.Msg)
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsAuth reports whether err is a credential failure.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
