// Package notify wraps the push transport. The coordinator only sees the
// Publisher and ChannelAuth capabilities; the concrete Pusher client lives
// behind them so tests can swap in a recorder.
package notify

import "context"

// Channel naming contract shared with clients.
const (
	playerChannelPrefix   = "private-player-"
	gameChannelPrefix     = "private-game-"
	presenceChannelPrefix = "presence-game-"
)

// Event names delivered over session channels.
const (
	EventGameStart    = "game-start"
	EventMove         = "move"
	EventGameOver     = "game-over"
	EventOpponentLeft = "opponent-left"
)

func PlayerChannel(playerID string) string    { return playerChannelPrefix + playerID }
func GameChannel(sessionID string) string     { return gameChannelPrefix + sessionID }
func PresenceChannel(sessionID string) string { return presenceChannelPrefix + sessionID }

// SplitChannel breaks a channel name into its kind ("player", "game",
// "presence") and target id. Unknown names return ok=false.
func SplitChannel(name string) (kind, id string, ok bool) {
	switch {
	case len(name) > len(playerChannelPrefix) && name[:len(playerChannelPrefix)] == playerChannelPrefix:
		return "player", name[len(playerChannelPrefix):], true
	case len(name) > len(gameChannelPrefix) && name[:len(gameChannelPrefix)] == gameChannelPrefix:
		return "game", name[len(gameChannelPrefix):], true
	case len(name) > len(presenceChannelPrefix) && name[:len(presenceChannelPrefix)] == presenceChannelPrefix:
		return "presence", name[len(presenceChannelPrefix):], true
	}
	return "", "", false
}

// Publisher pushes an event to a channel, best-effort. A returned error never
// implies the triggering state change was rolled back.
type Publisher interface {
	Publish(ctx context.Context, channel, event string, payload any) error
}

// MemberData is the presence metadata attached to a subscriber.
type MemberData struct {
	UserID   string
	UserInfo map[string]string
}

// ChannelAuth produces transport credentials for a subscription the
// application has already authorized.
type ChannelAuth interface {
	AuthorizePrivate(socketID, channel string) ([]byte, error)
	AuthorizePresence(socketID, channel string, member MemberData) ([]byte, error)
}
