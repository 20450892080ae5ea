package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "arena:session:"
	watchersSuffix   = ":watchers"
	assignKeyPrefix  = "arena:assign:"
	watchKeyPrefix   = "arena:watch:"
	waitingKey       = "arena:waiting"
)

// Redis is the shared backend. Every compound operation runs as a server-side
// script so concurrent coordinators on different processes observe the same
// atomicity as the in-process map. Keys are derived inside the scripts, which
// assumes a non-clustered deployment.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Redis{rdb: rdb, ttl: ttl}
}

func sessionKey(id string) string  { return sessionKeyPrefix + id }
func watchersKey(id string) string { return sessionKeyPrefix + id + watchersSuffix }
func assignKey(p string) string    { return assignKeyPrefix + p }
func watchKey(p string) string     { return watchKeyPrefix + p }

// wrapErr folds transport failures into ErrUnavailable so callers can tell a
// dead backend apart from a logical miss.
func wrapErr(op string, err error) error {
	if err == nil || errors.Is(err, redis.Nil) {
		return err
	}
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}

var claimWaitingScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if not cur or cur == ARGV[1] then
  redis.call('SET', KEYS[1], ARGV[1], 'EX', tonumber(ARGV[2]))
  return ''
end
redis.call('DEL', KEYS[1])
return cur
`)

var clearWaitingScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return 1
end
return 0
`)

var joinOrSpectateScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then return 'not_found' end
local s = cjson.decode(raw)
if s.status == 'finished' then return 'not_found' end
local p = ARGV[1]
if s.white == p then return 'existing:white' end
if s.black == p then return 'existing:black' end
local prev = redis.call('GET', KEYS[4])
if prev and prev ~= s.id then
  redis.call('SREM', ARGV[5] .. prev .. ARGV[6], p)
end
local ttl = tonumber(ARGV[3])
local open = (s.white == '' or s.black == '')
if ARGV[2] ~= '1' or s.status ~= 'waiting' or not open then
  redis.call('SADD', KEYS[2], p)
  redis.call('EXPIRE', KEYS[2], ttl)
  redis.call('SET', KEYS[4], s.id, 'EX', ttl)
  if open and s.status == 'waiting' then return 'spectator:open' end
  return 'spectator'
end
local color = 'white'
if s.white ~= '' then color = 'black' end
if color == 'white' then s.white = p else s.black = p end
if s.white ~= '' and s.black ~= '' then s.status = 'active' end
s.lastUpdated = tonumber(ARGV[4])
redis.call('SREM', KEYS[2], p)
redis.call('DEL', KEYS[4])
redis.call('SET', KEYS[1], cjson.encode(s), 'EX', ttl)
redis.call('SET', KEYS[3], cjson.encode({sessionId = s.id, color = color}), 'EX', ttl)
return 'seated:' .. color
`)

var claimSeatScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then return 'not_found' end
local s = cjson.decode(raw)
if s.status == 'finished' then return 'not_found' end
local p = ARGV[1]
if s.white == p then return 'creator' end
if s.black == p then return 'already_held' end
if s.black ~= '' then return 'taken' end
local prev = redis.call('GET', KEYS[4])
if prev and prev ~= s.id then
  redis.call('SREM', ARGV[4] .. prev .. ARGV[5], p)
end
local ttl = tonumber(ARGV[2])
s.black = p
s.status = 'active'
s.lastUpdated = tonumber(ARGV[3])
redis.call('SREM', KEYS[2], p)
redis.call('DEL', KEYS[4])
redis.call('SET', KEYS[1], cjson.encode(s), 'EX', ttl)
redis.call('SET', KEYS[3], cjson.encode({sessionId = s.id, color = 'black'}), 'EX', ttl)
return 'assigned'
`)

var removeSessionScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then return 0 end
local s = cjson.decode(raw)
for _, p in ipairs(redis.call('SMEMBERS', KEYS[2])) do
  redis.call('DEL', ARGV[2] .. p)
end
redis.call('DEL', KEYS[1], KEYS[2])
for _, seat in ipairs({s.white, s.black}) do
  if seat ~= '' then
    local akey = ARGV[1] .. seat
    local araw = redis.call('GET', akey)
    if araw and cjson.decode(araw).sessionId == s.id then
      redis.call('DEL', akey)
    end
  end
end
return 1
`)

func (r *Redis) GetSession(ctx context.Context, id string) (*Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("get session", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	watchers, err := r.rdb.SMembers(ctx, watchersKey(id)).Result()
	if err != nil {
		return nil, wrapErr("get session watchers", err)
	}
	s.Spectators = watchers
	return &s, nil
}

func (r *Redis) SaveSession(ctx context.Context, s *Session) error {
	s.LastUpdated = nowMillis()
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, sessionKey(s.ID), raw, r.ttl)
	pipe.Del(ctx, watchersKey(s.ID))
	if len(s.Spectators) > 0 {
		members := make([]any, 0, len(s.Spectators))
		for _, p := range s.Spectators {
			members = append(members, p)
			pipe.Set(ctx, watchKey(p), s.ID, r.ttl)
		}
		pipe.SAdd(ctx, watchersKey(s.ID), members...)
		pipe.Expire(ctx, watchersKey(s.ID), r.ttl)
	}
	_, err = pipe.Exec(ctx)
	return wrapErr("save session", err)
}

func (r *Redis) RemoveSession(ctx context.Context, id string) error {
	keys := []string{sessionKey(id), watchersKey(id)}
	err := removeSessionScript.Run(ctx, r.rdb, keys, assignKeyPrefix, watchKeyPrefix).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return wrapErr("remove session", err)
}

func (r *Redis) GetAssignment(ctx context.Context, playerID string) (*Assignment, error) {
	raw, err := r.rdb.Get(ctx, assignKey(playerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("get assignment", err)
	}
	var a Assignment
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode assignment %s: %w", playerID, err)
	}
	return &a, nil
}

func (r *Redis) SetAssignment(ctx context.Context, playerID string, a Assignment) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode assignment %s: %w", playerID, err)
	}
	return wrapErr("set assignment", r.rdb.Set(ctx, assignKey(playerID), raw, r.ttl).Err())
}

func (r *Redis) RemoveAssignment(ctx context.Context, playerID string) error {
	return wrapErr("remove assignment", r.rdb.Del(ctx, assignKey(playerID)).Err())
}

func (r *Redis) ClaimWaitingSlot(ctx context.Context, playerID string) (string, error) {
	prev, err := claimWaitingScript.Run(ctx, r.rdb, []string{waitingKey}, playerID, int(r.ttl.Seconds())).Text()
	if err != nil {
		return "", wrapErr("claim waiting slot", err)
	}
	return prev, nil
}

func (r *Redis) ClearWaitingSlot(ctx context.Context, playerID string) (bool, error) {
	n, err := clearWaitingScript.Run(ctx, r.rdb, []string{waitingKey}, playerID).Int()
	if err != nil {
		return false, wrapErr("clear waiting slot", err)
	}
	return n == 1, nil
}

func (r *Redis) RestoreWaitingSlot(ctx context.Context, playerID string) error {
	return wrapErr("restore waiting slot", r.rdb.Set(ctx, waitingKey, playerID, r.ttl).Err())
}

func (r *Redis) JoinOrSpectate(ctx context.Context, sessionID, playerID string, autoSeat bool) (*JoinResult, error) {
	seat := "0"
	if autoSeat {
		seat = "1"
	}
	keys := []string{sessionKey(sessionID), watchersKey(sessionID), assignKey(playerID), watchKey(playerID)}
	res, err := joinOrSpectateScript.Run(ctx, r.rdb, keys,
		playerID, seat, int(r.ttl.Seconds()), nowMillis(), sessionKeyPrefix, watchersSuffix).Text()
	if err != nil {
		return nil, wrapErr("join or spectate", err)
	}
	switch {
	case res == "not_found":
		return nil, ErrNotFound
	case res == "spectator":
		return &JoinResult{Outcome: JoinSpectator}, nil
	case res == "spectator:open":
		return &JoinResult{Outcome: JoinSpectator, SeatOpen: true}, nil
	case strings.HasPrefix(res, "existing:"):
		return &JoinResult{Outcome: JoinExisting, Color: Color(strings.TrimPrefix(res, "existing:"))}, nil
	case strings.HasPrefix(res, "seated:"):
		return &JoinResult{Outcome: JoinSeated, Color: Color(strings.TrimPrefix(res, "seated:"))}, nil
	}
	return nil, fmt.Errorf("join or spectate: unexpected result %q", res)
}

func (r *Redis) ClaimSeat(ctx context.Context, sessionID, playerID string) (ClaimOutcome, error) {
	keys := []string{sessionKey(sessionID), watchersKey(sessionID), assignKey(playerID), watchKey(playerID)}
	res, err := claimSeatScript.Run(ctx, r.rdb, keys,
		playerID, int(r.ttl.Seconds()), nowMillis(), sessionKeyPrefix, watchersSuffix).Text()
	if err != nil {
		return "", wrapErr("claim seat", err)
	}
	if res == "not_found" {
		return "", ErrNotFound
	}
	switch out := ClaimOutcome(res); out {
	case ClaimAssigned, ClaimAlreadyHeld, ClaimTaken, ClaimCreator:
		return out, nil
	}
	return "", fmt.Errorf("claim seat: unexpected result %q", res)
}

func (r *Redis) GetSpectated(ctx context.Context, playerID string) (string, error) {
	id, err := r.rdb.Get(ctx, watchKey(playerID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", wrapErr("get spectated", err)
	}
	return id, nil
}

func (r *Redis) RemoveSpectator(ctx context.Context, sessionID, playerID string) error {
	pipe := r.rdb.TxPipeline()
	pipe.SRem(ctx, watchersKey(sessionID), playerID)
	pipe.Del(ctx, watchKey(playerID))
	_, err := pipe.Exec(ctx)
	return wrapErr("remove spectator", err)
}

// SweepStale is a no-op on redis: session, assignment and watcher keys all
// carry a TTL, so abandonment eviction happens server-side.
func (r *Redis) SweepStale(context.Context, int64) (int, error) { return 0, nil }

func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return wrapErr("ping", r.rdb.Ping(ctx).Err())
}
