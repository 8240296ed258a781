package ledger

import (
	"fmt"
	"time"

	"wager-engine/internal/wager"
)

// Entry records one status transition. Entries are only ever appended.
type Entry struct {
	BetID      string       `json:"bet_id"`
	FromStatus wager.Status `json:"from_status"`
	ToStatus   wager.Status `json:"to_status"`
	Reason     string       `json:"reason"`
	At         time.Time    `json:"at"`
}

type Ledger struct {
	Now func() time.Time
}

func New() *Ledger {
	return &Ledger{Now: time.Now}
}

func (l *Ledger) now() time.Time {
	if l.Now == nil {
		return time.Now().UTC()
	}
	return l.Now().UTC()
}

func (l *Ledger) Open(b *wager.Bet) Entry {
	now := l.now()
	b.Status = wager.StatusPending
	b.CreatedAt = now
	b.UpdatedAt = now
	return Entry{BetID: b.ID, ToStatus: wager.StatusPending, Reason: "slip_submitted", At: now}
}

// Confirm moves pending to active. Confirming an active bet changes nothing.
func (l *Ledger) Confirm(b *wager.Bet) (Entry, bool, error) {
	switch b.Status {
	case wager.StatusActive:
		return Entry{}, false, nil
	case wager.StatusSettled:
		return Entry{}, false, wager.ErrAlreadySettled
	case wager.StatusPending:
		return l.move(b, wager.StatusActive, "payment_confirmed"), true, nil
	}
	return Entry{}, false, fmt.Errorf("ledger: bet %s has unknown status %q", b.ID, b.Status)
}

func RequirePlayable(b wager.Bet) error {
	switch b.Status {
	case wager.StatusActive:
		return nil
	case wager.StatusPending:
		return wager.ErrNotConfirmed
	case wager.StatusSettled:
		return wager.ErrAlreadySettled
	}
	return fmt.Errorf("ledger: bet %s has unknown status %q", b.ID, b.Status)
}

func (l *Ledger) Settle(b *wager.Bet, out wager.Outcome, reason string) (Entry, error) {
	if err := RequirePlayable(*b); err != nil {
		return Entry{}, err
	}
	e := l.move(b, wager.StatusSettled, reason)
	settledAt := e.At
	b.SettledAt = &settledAt
	b.Outcome = &out
	return e, nil
}

func (l *Ledger) move(b *wager.Bet, to wager.Status, reason string) Entry {
	now := l.now()
	e := Entry{BetID: b.ID, FromStatus: b.Status, ToStatus: to, Reason: reason, At: now}
	b.Status = to
	b.UpdatedAt = now
	return e
}
