package wager

import "errors"

var (
	ErrInvalidParameters      = errors.New("invalid_parameters")
	ErrNotConfirmed           = errors.New("not_confirmed")
	ErrAlreadySettled         = errors.New("already_settled")
	ErrSessionAlreadyResolved = errors.New("session_already_resolved")
	ErrInvalidMove            = errors.New("invalid_move")
	ErrBusy                   = errors.New("busy")
	ErrSeedNotYetRevealed     = errors.New("seed_not_yet_revealed")
	ErrNotFound               = errors.New("bet_not_found")
	ErrIdempotencyKeyReused   = errors.New("idempotency_key_reused")
)

var messages = []struct {
	err error
	msg string
}{
	{ErrInvalidParameters, "The wager or game settings are not valid."},
	{ErrNotConfirmed, "This bet is still waiting for payment confirmation."},
	{ErrAlreadySettled, "This bet has already been settled."},
	{ErrSessionAlreadyResolved, "This game is already over."},
	{ErrInvalidMove, "That move is not allowed right now."},
	{ErrBusy, "This bet is busy, try again shortly."},
	{ErrSeedNotYetRevealed, "The server seed is revealed once the bet is settled."},
	{ErrNotFound, "Bet not found."},
	{ErrIdempotencyKeyReused, "That request id was already used for a different bet."},
}

func Code(err error) string {
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.err.Error()
		}
	}
	return "internal_error"
}

func Message(err error) string {
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "Something went wrong."
}
