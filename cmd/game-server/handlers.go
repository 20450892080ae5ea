package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"chess-arena/internal/app/arena"
	"chess-arena/internal/app/channels"
	"chess-arena/internal/game"
	"chess-arena/internal/store"
)

type actionRequest struct {
	Action    string `json:"action"`
	PlayerID  string `json:"playerId"`
	SessionID string `json:"sessionId"`
	Move      *struct {
		From      string `json:"from"`
		To        string `json:"to"`
		Promotion string `json:"promotion"`
	} `json:"move"`
}

func actionHandler(svc *arena.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req actionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		if req.PlayerID == "" {
			writeHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}

		var (
			out any
			err error
		)
		switch req.Action {
		case "create":
			out, err = svc.Create(r.Context(), req.PlayerID)
		case "join":
			if req.SessionID == "" {
				writeHTTPError(w, http.StatusBadRequest, "invalid_request")
				return
			}
			out, err = svc.Join(r.Context(), req.PlayerID, req.SessionID)
		case "queue":
			out, err = svc.Queue(r.Context(), req.PlayerID)
		case "claim":
			if req.SessionID == "" {
				writeHTTPError(w, http.StatusBadRequest, "invalid_request")
				return
			}
			out, err = svc.Claim(r.Context(), req.PlayerID, req.SessionID)
		case "move":
			if req.Move == nil {
				writeHTTPError(w, http.StatusBadRequest, "invalid_request")
				return
			}
			out, err = svc.Move(r.Context(), req.PlayerID, game.MoveRequest{
				From:      req.Move.From,
				To:        req.Move.To,
				Promotion: req.Move.Promotion,
			})
		case "leave":
			out, err = svc.Leave(r.Context(), req.PlayerID)
		default:
			writeHTTPError(w, http.StatusBadRequest, "unknown_action")
			return
		}
		if err != nil {
			writeArenaError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func statusHandler(svc *arena.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("sessionId")
		if sessionID == "" {
			writeHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		out, err := svc.Status(r.Context(), sessionID)
		if err != nil {
			writeArenaError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// pusherAuthHandler accepts both the form encoding the pusher-js client
// sends and a JSON body, since the player identity rides alongside the
// socket fields either way.
func pusherAuthHandler(svc *channels.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		socketID, channelName, playerID := parseAuthRequest(r)
		if socketID == "" || channelName == "" || playerID == "" {
			writeHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		token, err := svc.Authorize(r.Context(), socketID, channelName, playerID)
		if err != nil {
			switch {
			case errors.Is(err, channels.ErrInvalidRequest):
				writeHTTPError(w, http.StatusBadRequest, "invalid_request")
			case errors.Is(err, channels.ErrForbidden):
				writeHTTPError(w, http.StatusForbidden, "forbidden")
			case errors.Is(err, channels.ErrUnknownChannel):
				writeHTTPError(w, http.StatusForbidden, "unknown_channel")
			case errors.Is(err, store.ErrUnavailable):
				writeHTTPError(w, http.StatusInternalServerError, "store_unavailable")
			default:
				writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(token)
	}
}

func parseAuthRequest(r *http.Request) (socketID, channelName, playerID string) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var body struct {
			SocketID    string `json:"socket_id"`
			ChannelName string `json:"channel_name"`
			PlayerID    string `json:"playerId"`
			PlayerIDAlt string `json:"player_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return "", "", ""
		}
		playerID = body.PlayerID
		if playerID == "" {
			playerID = body.PlayerIDAlt
		}
		return body.SocketID, body.ChannelName, playerID
	}
	if err := r.ParseForm(); err != nil {
		return "", "", ""
	}
	playerID = r.PostFormValue("playerId")
	if playerID == "" {
		playerID = r.PostFormValue("player_id")
	}
	return r.PostFormValue("socket_id"), r.PostFormValue("channel_name"), playerID
}

func writeArenaError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, arena.ErrInvalidRequest):
		writeHTTPError(w, http.StatusBadRequest, "invalid_request")
	case errors.Is(err, arena.ErrSessionNotFound):
		writeHTTPError(w, http.StatusNotFound, "session_not_found")
	case errors.Is(err, arena.ErrNotAssigned):
		writeHTTPError(w, http.StatusBadRequest, "not_assigned")
	case errors.Is(err, arena.ErrInactive):
		writeHTTPError(w, http.StatusBadRequest, "game_not_active")
	case errors.Is(err, arena.ErrNotYourTurn):
		writeHTTPError(w, http.StatusBadRequest, "not_your_turn")
	case errors.Is(err, arena.ErrIllegalMove):
		writeHTTPError(w, http.StatusBadRequest, "illegal_move")
	case errors.Is(err, arena.ErrCreatorClaim):
		writeHTTPError(w, http.StatusBadRequest, "creator_claim")
	case errors.Is(err, arena.ErrSeatTaken):
		writeHTTPError(w, http.StatusConflict, "seat_taken")
	case errors.Is(err, arena.ErrAlreadyAssigned):
		writeHTTPError(w, http.StatusConflict, "already_assigned")
	case errors.Is(err, arena.ErrNotifyFailed):
		writeHTTPError(w, http.StatusInternalServerError, "notify_failed")
	case errors.Is(err, store.ErrUnavailable):
		writeHTTPError(w, http.StatusInternalServerError, "store_unavailable")
	default:
		writeHTTPError(w, http.StatusInternalServerError, "internal_error")
	}
}
