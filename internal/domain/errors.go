package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies directory failures. Both kinds are caller-caused.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is returned by Directory operations. Reason distinguishes the conflict
// conditions; Message is the human-readable detail shown to callers.
type Error struct {
	Kind    ErrorKind
	Reason  string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches on Kind and Reason so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Reason == t.Reason
}

var (
	// ErrActivityNotFound is returned when the activity name is not in the directory.
	ErrActivityNotFound = &Error{Kind: KindNotFound, Reason: "activity_not_found", Message: "Activity not found"}
	// ErrAlreadySignedUp is returned when enrolling an email already on the roster.
	ErrAlreadySignedUp = &Error{Kind: KindConflict, Reason: "already_signed_up", Message: "Student is already signed up"}
	// ErrNotSignedUp is returned when withdrawing an email missing from the roster.
	ErrNotSignedUp = &Error{Kind: KindConflict, Reason: "not_signed_up", Message: "Student is not signed up for this activity"}
	// ErrActivityFull is only returned when capacity enforcement is enabled.
	ErrActivityFull = &Error{Kind: KindConflict, Reason: "activity_full", Message: "Activity is full"}
)

func alreadySignedUp(email string) error {
	return &Error{Kind: KindConflict, Reason: ErrAlreadySignedUp.Reason, Message: fmt.Sprintf("%s is already signed up", email)}
}

func notSignedUp(email, activity string) error {
	return &Error{Kind: KindConflict, Reason: ErrNotSignedUp.Reason, Message: fmt.Sprintf("%s is not signed up for %s", email, activity)}
}

func activityFull(activity string) error {
	return &Error{Kind: KindConflict, Reason: ErrActivityFull.Reason, Message: fmt.Sprintf("%s is full", activity)}
}

// KindOf extracts the ErrorKind from err, or zero when err is not a directory error.
func KindOf(err error) ErrorKind {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Kind
	}
	return 0
}

// IsNotFound reports whether err is a NotFound directory error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsConflict reports whether err is a Conflict directory error.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }
