package passcode

import "errors"

// Sentinel kinds for passcode errors.
var (
	ErrNotApproved  = errors.New("user is not approved")
	ErrNoPasscode   = errors.New("no passcode was issued for this user")
	ErrExpired      = errors.New("passcode expired")
	ErrInvalidEmail = errors.New("invalid email")
	ErrSend         = errors.New("passcode delivery failed")
)
