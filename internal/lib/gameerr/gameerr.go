package gameerr

import "errors"

// Code is the machine-readable rejection reason returned to callers.
// Every code maps to a validation or conflict failure that leaves state
// untouched; infrastructure errors are never wrapped into a Code.
type Code string

const (
	AlreadyStarted      Code = "ALREADY_STARTED"
	ConflictingBet      Code = "CONFLICTING_BET"
	GameAlreadyActive   Code = "GAME_ALREADY_ACTIVE"
	AlreadyRevealed     Code = "ALREADY_REVEALED"
	NoRevealedTiles     Code = "NO_REVEALED_TILES"
	InsufficientBalance Code = "INSUFFICIENT_BALANCE"
	InvalidSignature    Code = "INVALID_SIGNATURE"
	InvalidAmount       Code = "INVALID_AMOUNT"
	InvalidPosition     Code = "INVALID_POSITION"
	NoActiveGame        Code = "NO_ACTIVE_GAME"
	UnknownUser         Code = "UNKNOWN_USER"
)

type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return string(e.Code) + ": " + e.Msg
	}

	return string(e.Code)
}

func New(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// CodeOf extracts the rejection code from err, or "" when err is an
// infrastructure failure rather than a game rejection.
func CodeOf(err error) Code {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}

	return ""
}

func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
