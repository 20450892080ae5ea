package store

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// Session is one chess game. White/Black hold player ids, "" means the seat
// is empty. LastUpdated is unix milliseconds and drives staleness eviction.
type Session struct {
	ID          string   `json:"id"`
	FEN         string   `json:"fen"`
	White       string   `json:"white"`
	Black       string   `json:"black"`
	Spectators  []string `json:"-"`
	Status      Status   `json:"status"`
	LastUpdated int64    `json:"lastUpdated"`
}

// Seat returns the player id occupying the given color.
func (s *Session) Seat(c Color) string {
	if c == White {
		return s.White
	}
	return s.Black
}

// SeatOf reports which seat the player occupies, if any.
func (s *Session) SeatOf(playerID string) (Color, bool) {
	switch playerID {
	case "":
		return "", false
	case s.White:
		return White, true
	case s.Black:
		return Black, true
	}
	return "", false
}

// SeatOpen reports whether at least one seat is empty.
func (s *Session) SeatOpen() bool {
	return s.White == "" || s.Black == ""
}

// IsSpectator reports whether the player is in the spectator set.
func (s *Session) IsSpectator(playerID string) bool {
	for _, id := range s.Spectators {
		if id == playerID {
			return true
		}
	}
	return false
}

// Assignment binds a player to the seat they occupy in a session.
type Assignment struct {
	SessionID string `json:"sessionId"`
	Color     Color  `json:"color"`
}

type JoinOutcome string

const (
	JoinExisting  JoinOutcome = "existing"
	JoinSpectator JoinOutcome = "spectator"
	JoinSeated    JoinOutcome = "seated"
)

// JoinResult is the outcome of the atomic JoinOrSpectate step. Color is set
// for the existing and seated outcomes; SeatOpen is set for spectators and
// reports whether the opponent seat can still be claimed.
type JoinResult struct {
	Outcome  JoinOutcome
	Color    Color
	SeatOpen bool
}

type ClaimOutcome string

const (
	ClaimAssigned    ClaimOutcome = "assigned"
	ClaimAlreadyHeld ClaimOutcome = "already_held"
	ClaimTaken       ClaimOutcome = "taken"
	ClaimCreator     ClaimOutcome = "creator"
)
