// Package channels gates real-time channel subscriptions: it decides who may
// receive which events and mints the transport credential for approved
// subscriptions.
package channels

import (
	"context"
	"errors"

	"chess-arena/internal/notify"
	"chess-arena/internal/store"
)

type Service struct {
	store store.Store
	auth  notify.ChannelAuth
}

func NewService(st store.Store, auth notify.ChannelAuth) *Service {
	return &Service{store: st, auth: auth}
}

// Authorize validates a subscription request and returns the transport's
// opaque credential. Presence channels additionally carry the subscriber's
// role so other members can see who is white, black or watching.
func (s *Service) Authorize(ctx context.Context, socketID, channelName, playerID string) ([]byte, error) {
	if socketID == "" || channelName == "" || playerID == "" {
		return nil, ErrInvalidRequest
	}
	kind, target, ok := notify.SplitChannel(channelName)
	if !ok {
		return nil, ErrUnknownChannel
	}
	switch kind {
	case "player":
		if target != playerID {
			return nil, ErrForbidden
		}
		return s.auth.AuthorizePrivate(socketID, channelName)
	case "game":
		if _, err := s.sessionRole(ctx, target, playerID); err != nil {
			return nil, err
		}
		return s.auth.AuthorizePrivate(socketID, channelName)
	case "presence":
		role, err := s.sessionRole(ctx, target, playerID)
		if err != nil {
			return nil, err
		}
		return s.auth.AuthorizePresence(socketID, channelName, notify.MemberData{
			UserID:   playerID,
			UserInfo: map[string]string{"color": role},
		})
	}
	return nil, ErrUnknownChannel
}

// sessionRole resolves the player's relationship to a session: a seat color
// for players, "spectator" for watchers, ErrForbidden for strangers.
func (s *Service) sessionRole(ctx context.Context, sessionID, playerID string) (string, error) {
	a, err := s.store.GetAssignment(ctx, playerID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	if a != nil && a.SessionID == sessionID {
		return string(a.Color), nil
	}
	watched, err := s.store.GetSpectated(ctx, playerID)
	if err != nil {
		return "", err
	}
	if watched == sessionID {
		return "spectator", nil
	}
	return "", ErrForbidden
}
