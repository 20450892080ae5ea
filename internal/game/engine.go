// Package game adapts the chess rule engine behind a small FEN-in/FEN-out
// surface. The coordinator never sees the engine's types: board state travels
// as an opaque FEN string through the session store.
package game

import (
	"errors"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"chess-arena/internal/store"
)

var ErrIllegalMove = errors.New("illegal move")

// MoveRequest is a move in coordinate form. Promotion is a single UCI letter
// ("q", "r", "b", "n") and defaults to queen when the move requires one.
type MoveRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// MoveResult describes an applied move plus the resulting position.
type MoveResult struct {
	FEN       string
	SAN       string
	Turn      store.Color
	Check     bool
	Captured  bool
	Promotion string
	Over      bool
	Winner    store.Color // set only on checkmate
	Reason    string      // checkmate | stalemate | threefold | insufficient-material | draw
}

// StartingFEN returns the initial position.
func StartingFEN() string {
	return nchess.NewGame().FEN()
}

func gameFromFEN(fen string) (*nchess.Game, error) {
	option, err := nchess.FEN(fen)
	if err != nil {
		return nil, err
	}
	return nchess.NewGame(option), nil
}

// Turn reports which color moves next in the given position.
func Turn(fen string) (store.Color, error) {
	g, err := gameFromFEN(fen)
	if err != nil {
		return "", err
	}
	if g.Position().Turn() == nchess.White {
		return store.White, nil
	}
	return store.Black, nil
}

// Apply validates mv against the position and returns the outcome. The input
// FEN is never mutated; an illegal move returns ErrIllegalMove.
func Apply(fen string, mv MoveRequest) (*MoveResult, error) {
	g, err := gameFromFEN(fen)
	if err != nil {
		return nil, err
	}
	pos := g.Position()
	mover := store.White
	if pos.Turn() == nchess.Black {
		mover = store.Black
	}

	uci := strings.ToLower(mv.From + mv.To + mv.Promotion)
	decoded, err := nchess.UCINotation{}.Decode(pos, uci)
	if err != nil && mv.Promotion == "" {
		// coordinate-only input: assume queen when the move needs a promotion
		uci += "q"
		decoded, err = nchess.UCINotation{}.Decode(pos, uci)
	}
	if err != nil {
		return nil, ErrIllegalMove
	}
	san := nchess.AlgebraicNotation{}.Encode(pos, decoded)
	if err := g.Move(decoded, nil); err != nil {
		return nil, ErrIllegalMove
	}

	// repetition and fifty-move draws are claimable, not automatic; claim
	// them on the mover's behalf so the result is a draw, not a limbo
	if g.Outcome() == nchess.NoOutcome {
		for _, method := range g.EligibleDraws() {
			if method == nchess.ThreefoldRepetition || method == nchess.FiftyMoveRule {
				_ = g.Draw(method)
				break
			}
		}
	}

	res := &MoveResult{
		FEN:      g.FEN(),
		SAN:      san,
		Check:    strings.HasSuffix(san, "+") || strings.HasSuffix(san, "#"),
		Captured: decoded.HasTag(nchess.Capture),
		Over:     g.Outcome() != nchess.NoOutcome,
	}
	if len(uci) == 5 {
		res.Promotion = uci[4:]
	}
	if res.Turn, err = Turn(res.FEN); err != nil {
		return nil, err
	}
	if !res.Over {
		return res, nil
	}

	switch g.Outcome() {
	case nchess.WhiteWon:
		res.Winner = store.White
	case nchess.BlackWon:
		res.Winner = store.Black
	}
	switch g.Method() {
	case nchess.Checkmate:
		res.Reason = "checkmate"
	case nchess.Stalemate:
		res.Reason = "stalemate"
	case nchess.ThreefoldRepetition, nchess.FivefoldRepetition:
		res.Reason = "threefold"
	case nchess.FiftyMoveRule, nchess.SeventyFiveMoveRule:
		res.Reason = "draw"
	case nchess.InsufficientMaterial:
		res.Reason = "insufficient-material"
	default:
		res.Reason = "draw"
	}
	// checkmate never belongs to the side that just got mated
	if res.Reason == "checkmate" {
		res.Winner = mover
	}
	return res, nil
}
