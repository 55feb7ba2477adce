package game

import "errors"

// Kind classifies engine errors by how a caller can recover from them.
type Kind int

const (
	// KindValidation is a caller mistake; nothing changed.
	KindValidation Kind = iota + 1
	// KindTemporal is an operation attempted outside its time window.
	KindTemporal
	// KindConcurrency means another mutation is in flight.
	KindConcurrency
	// KindPayoutFailure means the transfer failed and the round was rolled back.
	KindPayoutFailure
	// KindInvariant signals a bug; the mutation was aborted before any write.
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTemporal:
		return "temporal"
	case KindConcurrency:
		return "concurrency"
	case KindPayoutFailure:
		return "payout_failure"
	case KindInvariant:
		return "invariant_violation"
	default:
		return "unknown"
	}
}

// Error is a classified engine error. Sentinels below are compared with errors.Is.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrZeroStake          = &Error{KindValidation, "ZERO_STAKE", "must stake a positive amount"}
	ErrAlreadyJoined      = &Error{KindValidation, "ALREADY_JOINED", "already joined this round"}
	ErrNotJoined          = &Error{KindValidation, "NOT_JOINED", "must join round first"}
	ErrInvalidAmount      = &Error{KindValidation, "INVALID_AMOUNT", "invalid amount"}
	ErrInvalidParticipant = &Error{KindValidation, "INVALID_PARTICIPANT", "invalid participant id"}

	ErrRoundNotJoinable           = &Error{KindTemporal, "ROUND_NOT_JOINABLE", "round is not accepting players"}
	ErrRoundEnded                 = &Error{KindTemporal, "ROUND_ENDED", "round has ended"}
	ErrRoundStillActive           = &Error{KindTemporal, "ROUND_STILL_ACTIVE", "round still active"}
	ErrRoundNotStarted            = &Error{KindTemporal, "ROUND_NOT_STARTED", "round has not started"}
	ErrInactivityWindowNotReached = &Error{KindTemporal, "INACTIVITY_WINDOW_NOT_REACHED", "inactivity window not reached"}

	ErrPayoutInProgress = &Error{KindConcurrency, "PAYOUT_IN_PROGRESS", "payout in progress"}

	ErrPayoutFailed = &Error{KindPayoutFailure, "PAYOUT_FAILED", "payout failed"}

	ErrArithmeticOverflow = &Error{KindInvariant, "ARITHMETIC_OVERFLOW", "arithmetic overflow"}
	ErrNoParticipants     = &Error{KindInvariant, "NO_PARTICIPANTS", "cannot resolve a winner without participants"}
	ErrPotMismatch        = &Error{KindInvariant, "POT_MISMATCH", "pot does not equal the sum of stakes"}
	ErrAlreadyResumed     = &Error{KindInvariant, "ENGINE_IN_USE", "engine state can only be resumed before the first mutation"}
)

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind, true
	}
	return 0, false
}

// CodeOf returns the code of the first *Error in err's chain, or "INTERNAL".
func CodeOf(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return "INTERNAL"
}
