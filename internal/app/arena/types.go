package arena

import "chess-arena/internal/store"

type CreateResponse struct {
	SessionID string       `json:"sessionId"`
	Color     store.Color  `json:"color"`
	Status    store.Status `json:"status"`
	Board     string       `json:"board"`
}

type JoinResponse struct {
	SessionID         string       `json:"sessionId"`
	Color             store.Color  `json:"color,omitempty"`
	Role              string       `json:"role,omitempty"`
	Board             string       `json:"board"`
	Status            store.Status `json:"status"`
	CanPlayAsOpponent *bool        `json:"canPlayAsOpponent,omitempty"`
}

type QueueResponse struct {
	Status    string      `json:"status"` // waiting | matched | already-playing
	SessionID string      `json:"sessionId,omitempty"`
	Color     store.Color `json:"color,omitempty"`
	Board     string      `json:"board,omitempty"`
}

type ClaimResponse struct {
	SessionID string       `json:"sessionId"`
	Color     store.Color  `json:"color"`
	Board     string       `json:"board"`
	Status    store.Status `json:"status"`
}

type MoveResponse struct {
	OK bool `json:"ok"`
}

type LeaveResponse struct {
	Status string `json:"status"` // left | removed-from-queue | ok
}

type SeatsView struct {
	White bool `json:"white"`
	Black bool `json:"black"`
}

// StatusResponse is the reconnect snapshot of a session.
type StatusResponse struct {
	SessionID         string       `json:"sessionId"`
	Status            store.Status `json:"status"`
	Board             string       `json:"board"`
	Turn              store.Color  `json:"turn"`
	Seats             SeatsView    `json:"seats"`
	CanPlayAsOpponent bool         `json:"canPlayAsOpponent"`
}

// matchFound is the payload pushed to a player's private channel when an
// opponent arrives, and the body of its queue/claim twin responses.
type matchFound struct {
	Status    string      `json:"status"`
	SessionID string      `json:"sessionId"`
	Color     store.Color `json:"color"`
	Board     string      `json:"board"`
}

type movePayload struct {
	PlayerID string      `json:"playerId"`
	Move     moveDetail  `json:"move"`
	Board    string      `json:"board"`
	Turn     store.Color `json:"turn"`
	Check    bool        `json:"check"`
}

type moveDetail struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
	Captured  bool   `json:"captured,omitempty"`
}

type gameOverPayload struct {
	Winner store.Color `json:"winner,omitempty"`
	Reason string      `json:"reason"`
	Board  string      `json:"board"`
}

type opponentLeftPayload struct {
	PlayerID   string `json:"playerId"`
	OpponentID string `json:"opponentId,omitempty"`
}
