package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTaskNotFound is returned when a publication task is not found
	ErrTaskNotFound = errors.New("publication task not found")

	// ErrTaskAlreadyClaimed is returned when another worker won the pending to
	// processing transition for a task
	ErrTaskAlreadyClaimed = errors.New("task already claimed by another worker")

	// ErrInvalidTransition is returned when a status change violates the task
	// state machine
	ErrInvalidTransition = errors.New("invalid task status transition")

	// ErrObjectNotFound is returned when the object referenced by a task is missing
	ErrObjectNotFound = errors.New("object not found")

	// ErrChatNotFound is returned when the chat referenced by a task is missing
	ErrChatNotFound = errors.New("chat not found")

	// ErrAccountNotFound is returned when the account referenced by a task is missing
	ErrAccountNotFound = errors.New("telegram account not found")

	// ErrAccountInactive is returned when a send is attempted through a
	// deactivated account
	ErrAccountInactive = errors.New("telegram account is inactive")

	// ErrSubscriptionTaskNotFound is returned when a chat subscription task is not found
	ErrSubscriptionTaskNotFound = errors.New("chat subscription task not found")

	// ErrNotConnected is returned when an MTProto client is not connected
	ErrNotConnected = errors.New("telegram client is not connected")

	// ErrChatUnreachable is returned when the provider rejects the target chat
	// (kicked, permission denied, chat deleted)
	ErrChatUnreachable = errors.New("chat is unreachable")

	// ErrInvalidChatLink is returned for malformed, expired or unknown invite links
	ErrInvalidChatLink = errors.New("invalid chat link")

	// ErrDatabaseOperation is returned when a database operation fails
	ErrDatabaseOperation = errors.New("database operation failed")
)

// FloodWaitError is the provider's flood-control signal: an expected
// operational backoff, not an application failure.
type FloodWaitError struct {
	RetryAfter time.Duration
}

func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("flood wait: retry after %s", e.RetryAfter)
}

// NewFloodWaitError builds a FloodWaitError from an advised wait in seconds.
func NewFloodWaitError(seconds int) *FloodWaitError {
	return &FloodWaitError{RetryAfter: time.Duration(seconds) * time.Second}
}

// AsFloodWait extracts the advised wait from err if it carries a flood-control
// signal anywhere in its chain.
func AsFloodWait(err error) (time.Duration, bool) {
	var fw *FloodWaitError
	if errors.As(err, &fw) {
		return fw.RetryAfter, true
	}
	return 0, false
}

// IsConfigurationError reports whether err means the task references data that
// no longer exists. Such tasks are failed terminally, never retried.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrObjectNotFound) ||
		errors.Is(err, ErrChatNotFound) ||
		errors.Is(err, ErrAccountNotFound)
}
