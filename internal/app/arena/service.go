// Package arena is the game-session coordinator: matchmaking, seat
// assignment, move relay and teardown. Handlers are stateless; every safety
// property comes from the store's atomic operations, never from serializing
// requests here.
package arena

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"chess-arena/internal/game"
	"chess-arena/internal/notify"
	"chess-arena/internal/store"
)

type Service struct {
	store    store.Store
	notify   notify.Publisher
	autoSeat bool
}

// NewService wires the coordinator. autoSeat selects the legacy policy where
// a join fills the open seat directly instead of requiring an explicit claim.
func NewService(st store.Store, pub notify.Publisher, autoSeat bool) *Service {
	return &Service{store: st, notify: pub, autoSeat: autoSeat}
}

// Create allocates a fresh session with the creator seated as white.
func (s *Service) Create(ctx context.Context, playerID string) (*CreateResponse, error) {
	if playerID == "" {
		return nil, ErrInvalidRequest
	}
	if err := s.resolveConflict(ctx, playerID, ""); err != nil {
		return nil, err
	}
	sess := &store.Session{
		ID:     store.NewID(),
		FEN:    game.StartingFEN(),
		White:  playerID,
		Status: store.StatusWaiting,
	}
	if err := s.store.SaveSession(ctx, sess); err != nil {
		return nil, err
	}
	if err := s.store.SetAssignment(ctx, playerID, store.Assignment{SessionID: sess.ID, Color: store.White}); err != nil {
		return nil, err
	}
	return &CreateResponse{SessionID: sess.ID, Color: store.White, Status: sess.Status, Board: sess.FEN}, nil
}

// Join attaches a player to an existing session: idempotently for a seat
// holder, as a spectator otherwise. Under the auto-seat policy a waiting
// session's open seat is filled in the same atomic step.
func (s *Service) Join(ctx context.Context, playerID, sessionID string) (*JoinResponse, error) {
	if playerID == "" || sessionID == "" {
		return nil, ErrInvalidRequest
	}
	res, err := s.store.JoinOrSpectate(ctx, sessionID, playerID, s.autoSeat)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	sess, err := s.store.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	switch res.Outcome {
	case store.JoinExisting, store.JoinSeated:
		return &JoinResponse{SessionID: sessionID, Color: res.Color, Board: sess.FEN, Status: sess.Status}, nil
	default:
		claimable := res.SeatOpen
		return &JoinResponse{
			SessionID:         sessionID,
			Role:              "spectator",
			Board:             sess.FEN,
			Status:            sess.Status,
			CanPlayAsOpponent: &claimable,
		}, nil
	}
}

// Queue pairs the caller with whoever currently holds the waiting slot, or
// parks them in it. Re-queueing while bound to a live session is idempotent.
func (s *Service) Queue(ctx context.Context, playerID string) (*QueueResponse, error) {
	if playerID == "" {
		return nil, ErrInvalidRequest
	}
	if a, err := s.liveAssignment(ctx, playerID); err != nil {
		return nil, err
	} else if a != nil {
		sess, err := s.store.GetSession(ctx, a.SessionID)
		if err == nil {
			return &QueueResponse{Status: "already-playing", SessionID: a.SessionID, Color: a.Color, Board: sess.FEN}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	opponent, err := s.store.ClaimWaitingSlot(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if opponent == "" {
		return &QueueResponse{Status: "waiting"}, nil
	}

	sess := &store.Session{
		ID:     store.NewID(),
		FEN:    game.StartingFEN(),
		White:  opponent,
		Black:  playerID,
		Status: store.StatusActive,
	}
	if err := s.store.SaveSession(ctx, sess); err != nil {
		return nil, err
	}
	if err := s.store.SetAssignment(ctx, opponent, store.Assignment{SessionID: sess.ID, Color: store.White}); err != nil {
		return nil, err
	}
	if err := s.store.SetAssignment(ctx, playerID, store.Assignment{SessionID: sess.ID, Color: store.Black}); err != nil {
		return nil, err
	}

	// The waiting player only learns about the match through this push, so
	// its failure must unwind the pairing and put them back in the slot.
	payload := matchFound{Status: "matched", SessionID: sess.ID, Color: store.White, Board: sess.FEN}
	if err := s.notify.Publish(ctx, notify.PlayerChannel(opponent), notify.EventGameStart, payload); err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Str("player_id", opponent).
			Msg("match notification failed, rolling back pairing")
		if rbErr := s.store.RemoveSession(ctx, sess.ID); rbErr != nil {
			log.Error().Err(rbErr).Str("session_id", sess.ID).Msg("rollback: remove session failed")
		}
		if rbErr := s.store.RestoreWaitingSlot(ctx, opponent); rbErr != nil {
			log.Error().Err(rbErr).Str("player_id", opponent).Msg("rollback: restore waiting slot failed")
		}
		return nil, ErrNotifyFailed
	}

	return &QueueResponse{Status: "matched", SessionID: sess.ID, Color: store.Black, Board: sess.FEN}, nil
}

// Claim fills the opponent seat of a waiting session. A stale binding to a
// dead or never-started session is torn down first; a live one rejects the
// claim.
func (s *Service) Claim(ctx context.Context, playerID, sessionID string) (*ClaimResponse, error) {
	if playerID == "" || sessionID == "" {
		return nil, ErrInvalidRequest
	}
	if err := s.resolveConflict(ctx, playerID, sessionID); err != nil {
		return nil, err
	}
	outcome, err := s.store.ClaimSeat(ctx, sessionID, playerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	switch outcome {
	case store.ClaimTaken:
		return nil, ErrSeatTaken
	case store.ClaimCreator:
		return nil, ErrCreatorClaim
	}
	sess, err := s.store.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if outcome == store.ClaimAssigned && sess.White != "" {
		payload := matchFound{Status: "matched", SessionID: sessionID, Color: store.White, Board: sess.FEN}
		if err := s.notify.Publish(ctx, notify.PlayerChannel(sess.White), notify.EventGameStart, payload); err != nil {
			// the creator can still discover the opponent via the status
			// snapshot, so the claim stands
			log.Warn().Err(err).Str("session_id", sessionID).Msg("match start notification failed")
		}
	}
	return &ClaimResponse{SessionID: sessionID, Color: store.Black, Board: sess.FEN, Status: sess.Status}, nil
}

// Move applies one move for the player's seat: turn check, legality check,
// persist, broadcast, and terminal teardown when the game ends.
func (s *Service) Move(ctx context.Context, playerID string, mv game.MoveRequest) (*MoveResponse, error) {
	if playerID == "" || mv.From == "" || mv.To == "" {
		return nil, ErrInvalidRequest
	}
	a, err := s.store.GetAssignment(ctx, playerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotAssigned
	}
	if err != nil {
		return nil, err
	}
	sess, err := s.store.GetSession(ctx, a.SessionID)
	if errors.Is(err, store.ErrNotFound) {
		_ = s.store.RemoveAssignment(ctx, playerID)
		return nil, ErrInactive
	}
	if err != nil {
		return nil, err
	}
	if sess.Status != store.StatusActive {
		return nil, ErrInactive
	}
	turn, err := game.Turn(sess.FEN)
	if err != nil {
		return nil, err
	}
	if turn != a.Color {
		return nil, ErrNotYourTurn
	}
	res, err := game.Apply(sess.FEN, mv)
	if errors.Is(err, game.ErrIllegalMove) {
		return nil, ErrIllegalMove
	}
	if err != nil {
		return nil, err
	}

	sess.FEN = res.FEN
	if err := s.store.SaveSession(ctx, sess); err != nil {
		return nil, err
	}

	notifyErr := s.notify.Publish(ctx, notify.GameChannel(sess.ID), notify.EventMove, movePayload{
		PlayerID: playerID,
		Move:     moveDetail{From: mv.From, To: mv.To, Promotion: res.Promotion, Captured: res.Captured},
		Board:    res.FEN,
		Turn:     res.Turn,
		Check:    res.Check,
	})
	if notifyErr != nil {
		log.Error().Err(notifyErr).Str("session_id", sess.ID).Msg("move broadcast failed")
	}

	if res.Over {
		s.finishSession(ctx, sess, res)
	}
	if notifyErr != nil {
		return nil, ErrNotifyFailed
	}
	return &MoveResponse{OK: true}, nil
}

// finishSession marks the record finished, emits the terminal event and then
// deletes the session with its assignments. A finished record is never
// mutated again.
func (s *Service) finishSession(ctx context.Context, sess *store.Session, res *game.MoveResult) {
	sess.Status = store.StatusFinished
	if err := s.store.SaveSession(ctx, sess); err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("persist finished session failed")
	}
	payload := gameOverPayload{Winner: res.Winner, Reason: res.Reason, Board: res.FEN}
	if err := s.notify.Publish(ctx, notify.GameChannel(sess.ID), notify.EventGameOver, payload); err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("game over broadcast failed")
	}
	if err := s.store.RemoveSession(ctx, sess.ID); err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("remove finished session failed")
	}
}

// Leave is the explicit, idempotent teardown for queue slot, seat or
// spectator membership, in that order.
func (s *Service) Leave(ctx context.Context, playerID string) (*LeaveResponse, error) {
	if playerID == "" {
		return nil, ErrInvalidRequest
	}
	cleared, err := s.store.ClearWaitingSlot(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if cleared {
		return &LeaveResponse{Status: "removed-from-queue"}, nil
	}

	a, err := s.store.GetAssignment(ctx, playerID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if a != nil {
		sess, err := s.store.GetSession(ctx, a.SessionID)
		if errors.Is(err, store.ErrNotFound) {
			_ = s.store.RemoveAssignment(ctx, playerID)
			return &LeaveResponse{Status: "ok"}, nil
		}
		if err != nil {
			return nil, err
		}
		payload := opponentLeftPayload{PlayerID: playerID, OpponentID: sess.Seat(a.Color.Opponent())}
		if err := s.notify.Publish(ctx, notify.GameChannel(sess.ID), notify.EventOpponentLeft, payload); err != nil {
			log.Warn().Err(err).Str("session_id", sess.ID).Msg("opponent left notification failed")
		}
		if err := s.store.RemoveSession(ctx, sess.ID); err != nil {
			return nil, err
		}
		return &LeaveResponse{Status: "left"}, nil
	}

	watched, err := s.store.GetSpectated(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if watched != "" {
		if err := s.store.RemoveSpectator(ctx, watched, playerID); err != nil {
			return nil, err
		}
		return &LeaveResponse{Status: "left"}, nil
	}
	return &LeaveResponse{Status: "ok"}, nil
}

// Status returns a snapshot for reconnecting clients.
func (s *Service) Status(ctx context.Context, sessionID string) (*StatusResponse, error) {
	if sessionID == "" {
		return nil, ErrInvalidRequest
	}
	sess, err := s.store.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	turn, err := game.Turn(sess.FEN)
	if err != nil {
		return nil, err
	}
	return &StatusResponse{
		SessionID:         sess.ID,
		Status:            sess.Status,
		Board:             sess.FEN,
		Turn:              turn,
		Seats:             SeatsView{White: sess.White != "", Black: sess.Black != ""},
		CanPlayAsOpponent: sess.Status == store.StatusWaiting && sess.SeatOpen(),
	}, nil
}

// liveAssignment returns the player's assignment after lazily reconciling a
// binding whose session no longer lists them.
func (s *Service) liveAssignment(ctx context.Context, playerID string) (*store.Assignment, error) {
	a, err := s.store.GetAssignment(ctx, playerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sess, err := s.store.GetSession(ctx, a.SessionID)
	if errors.Is(err, store.ErrNotFound) {
		_ = s.store.RemoveAssignment(ctx, playerID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sess.Seat(a.Color) != playerID {
		_ = s.store.RemoveAssignment(ctx, playerID)
		return nil, nil
	}
	return a, nil
}

// resolveConflict enforces the one-live-seat rule before create and claim. A
// binding to targetSessionID itself is left to the atomic claim step. Stale
// bindings (missing session, seat lost, or a waiting session the player
// abandoned) are torn down; an active one is a hard conflict.
func (s *Service) resolveConflict(ctx context.Context, playerID, targetSessionID string) error {
	a, err := s.liveAssignment(ctx, playerID)
	if err != nil || a == nil {
		return err
	}
	if a.SessionID == targetSessionID {
		return nil
	}
	sess, err := s.store.GetSession(ctx, a.SessionID)
	if errors.Is(err, store.ErrNotFound) {
		return s.store.RemoveAssignment(ctx, playerID)
	}
	if err != nil {
		return err
	}
	if sess.Status == store.StatusWaiting {
		// the player created a session nobody ever joined; reclaim it
		return s.store.RemoveSession(ctx, sess.ID)
	}
	return ErrAlreadyAssigned
}
