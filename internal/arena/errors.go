package arena

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by the arena and engine packages wraps
// exactly one of these, so callers can branch with errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrStateConflict = errors.New("state conflict")
	ErrValidation    = errors.New("validation failed")
	ErrExternal      = errors.New("external dependency failure")
)

var (
	ErrContestNotFound = fmt.Errorf("%w: contest not found", ErrNotFound)
	ErrAttemptNotFound = fmt.Errorf("%w: not registered for this contest", ErrNotFound)
	ErrProblemNotFound = fmt.Errorf("%w: problem not found", ErrNotFound)

	ErrRegistrationClosed = fmt.Errorf("%w: registration is closed", ErrStateConflict)
	ErrAlreadyRegistered  = fmt.Errorf("%w: already registered for this contest", ErrStateConflict)
	ErrContestNotActive   = fmt.Errorf("%w: contest is not active", ErrStateConflict)
	ErrContestNotEditable = fmt.Errorf("%w: contest can only be edited before it starts", ErrStateConflict)
	ErrProblemNotStarted  = fmt.Errorf("%w: problem has not been started", ErrStateConflict)
	ErrAttemptClosed      = fmt.Errorf("%w: attempt is already finished", ErrStateConflict)
	ErrMaxAttempts        = fmt.Errorf("%w: maximum number of attempts reached", ErrStateConflict)
	ErrTimeLimitExceeded  = fmt.Errorf("%w: problem time limit exceeded", ErrStateConflict)
	ErrWriteConflict      = fmt.Errorf("%w: attempt was modified concurrently", ErrStateConflict)

	ErrJudgeUnavailable = fmt.Errorf("%w: judge unavailable", ErrExternal)
	ErrLedgerFailure    = fmt.Errorf("%w: ledger credit failed", ErrExternal)
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
