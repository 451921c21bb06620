// Package engine is the accounting core of dayproof: the only code allowed
// to write streak, weekly-challenge, and trophy state. Controllers call in;
// everything derived is recomputed from the upload and rest-day ledgers
// rather than incremented in place, which is what keeps rejections and
// admin corrections safe.
package engine

import "errors"

var (
	// ErrUploadNotFound is returned when the referenced upload does not exist.
	ErrUploadNotFound = errors.New("upload not found")
	// ErrChallengeNotFound is returned when the referenced challenge does not exist or is not usable.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrUserNotFound is returned when the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrAlreadyVerified signals a conflicting verification attempt; the caller performed no side effects.
	ErrAlreadyVerified = errors.New("upload already verified")
	// ErrDayAlreadyCovered signals that the date is already satisfied by an upload or a rest day.
	ErrDayAlreadyCovered = errors.New("date already covered by an upload or rest day")
	// ErrNoRestDaysLeft signals an exhausted rest-day allowance for the challenge.
	ErrNoRestDaysLeft = errors.New("no rest days left in this challenge")
	// ErrValidation wraps malformed input rejected before any state mutation.
	ErrValidation = errors.New("validation failed")
)
