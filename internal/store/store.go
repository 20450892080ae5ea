package store

import (
	"context"
	"errors"
)

// ErrNotFound is a logical miss: the record does not exist.
var ErrNotFound = errors.New("not found")

// ErrUnavailable is a transient backend failure. Callers may retry; it must
// never be conflated with ErrNotFound.
var ErrUnavailable = errors.New("store unavailable")

// Store is the session store behind every handler. The compound operations
// (ClaimWaitingSlot, ClearWaitingSlot, JoinOrSpectate, ClaimSeat) are atomic
// with respect to concurrent callers on both backends; plain reads are
// snapshots and may be stale by the time a follow-up write lands.
type Store interface {
	GetSession(ctx context.Context, id string) (*Session, error)
	// SaveSession fully overwrites the record and refreshes LastUpdated/TTL.
	SaveSession(ctx context.Context, s *Session) error
	// RemoveSession deletes the record and cascades removal of the seat
	// occupants' assignments and the spectator set.
	RemoveSession(ctx context.Context, id string) error

	GetAssignment(ctx context.Context, playerID string) (*Assignment, error)
	SetAssignment(ctx context.Context, playerID string, a Assignment) error
	RemoveAssignment(ctx context.Context, playerID string) error

	// ClaimWaitingSlot atomically pairs the caller with the current occupant.
	// An empty result means the caller now holds the slot and keeps waiting;
	// a non-empty result is the previous occupant, and the slot is cleared.
	ClaimWaitingSlot(ctx context.Context, playerID string) (string, error)
	// ClearWaitingSlot removes the slot only if held by playerID and reports
	// whether it did.
	ClearWaitingSlot(ctx context.Context, playerID string) (bool, error)
	// RestoreWaitingSlot puts playerID back into the slot unconditionally.
	// Used only to compensate a failed match notification.
	RestoreWaitingSlot(ctx context.Context, playerID string) error

	// JoinOrSpectate is the single atomic join step: idempotent for a player
	// already seated, spectator registration otherwise. With autoSeat the
	// first empty seat of a waiting session is filled instead, the session
	// goes active and the assignment is written in the same step.
	JoinOrSpectate(ctx context.Context, sessionID, playerID string, autoSeat bool) (*JoinResult, error)
	// ClaimSeat atomically fills the black seat of a waiting session.
	ClaimSeat(ctx context.Context, sessionID, playerID string) (ClaimOutcome, error)

	// GetSpectated returns the session the player currently spectates, or "".
	GetSpectated(ctx context.Context, playerID string) (string, error)
	RemoveSpectator(ctx context.Context, sessionID, playerID string) error

	// SweepStale evicts sessions untouched since cutoff (unix ms), plus a
	// waiting slot nobody claimed in that window, and returns how many
	// sessions were removed. The redis backend relies on key TTLs and
	// reports zero.
	SweepStale(ctx context.Context, cutoff int64) (int, error)

	Ping(ctx context.Context) error
}
