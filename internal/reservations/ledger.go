package reservations

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Ledger is the ephemeral, TTL-based store of active holds. Entries expire on
// their own; the expires_at field carried in the entry stays authoritative for
// callers even before the physical TTL fires.
type Ledger interface {
	Put(ctx context.Context, hold *Hold, ttl time.Duration) error
	Get(ctx context.Context, token string) (*Hold, error)
	Delete(ctx context.Context, token string) error
	PreloadScripts(ctx context.Context) error
}

type redisLedger struct {
	client *redis.Client
}

// NewRedisLedger creates a Redis-backed reservation ledger
func NewRedisLedger(client *redis.Client) Ledger {
	return &redisLedger{client: client}
}

// Lua script for atomic hold creation: metadata hash and ordered seat list are
// written and expired together, and an existing token is never overwritten.
const luaCreateHold = `
-- KEYS[1] = hold:{token}
-- KEYS[2] = hold_seats:{token}
-- ARGV[1] = ttl_seconds
-- ARGV[2] = event_id
-- ARGV[3] = total_amount
-- ARGV[4] = created_at (unix)
-- ARGV[5] = expires_at (unix)
-- ARGV[6..N] = seat_ids (request order)

local ttl = tonumber(ARGV[1])

if redis.call("EXISTS", KEYS[1]) == 1 then
    -- Token already maps to a hold
    return 0
end

redis.call("HMSET", KEYS[1],
    "event_id", ARGV[2],
    "total_amount", ARGV[3],
    "created_at", ARGV[4],
    "expires_at", ARGV[5]
)
redis.call("EXPIRE", KEYS[1], ttl)

for i = 6, #ARGV do
    redis.call("RPUSH", KEYS[2], ARGV[i])
end
redis.call("EXPIRE", KEYS[2], ttl)

return 1
`

// Lua script for atomic hold deletion; removing both keys in one script keeps
// a half-deleted entry from ever being observed.
const luaDeleteHold = `
-- KEYS[1] = hold:{token}
-- KEYS[2] = hold_seats:{token}

return redis.call("DEL", KEYS[1], KEYS[2])
`

func holdKey(token string) string {
	return fmt.Sprintf("hold:%s", token)
}

func holdSeatsKey(token string) string {
	return fmt.Sprintf("hold_seats:%s", token)
}

func (l *redisLedger) Put(ctx context.Context, hold *Hold, ttl time.Duration) error {
	if l.client == nil {
		return fmt.Errorf("redis client not available")
	}

	keys := []string{holdKey(hold.Token), holdSeatsKey(hold.Token)}
	args := []interface{}{
		strconv.Itoa(int(ttl.Seconds())),
		hold.EventID.String(),
		strconv.FormatFloat(hold.TotalAmount, 'f', -1, 64),
		strconv.FormatInt(hold.CreatedAt.Unix(), 10),
		strconv.FormatInt(hold.ExpiresAt.Unix(), 10),
	}
	for _, seatID := range hold.SeatIDs {
		args = append(args, seatID)
	}

	result, err := l.client.EvalSha(ctx, luaCreateHold, keys, args...).Result()
	if err != nil {
		// If script is not loaded, try to load and execute
		result, err = l.client.Eval(ctx, luaCreateHold, keys, args...).Result()
		if err != nil {
			return fmt.Errorf("failed to write hold: %w", err)
		}
	}

	created, ok := result.(int64)
	if !ok {
		return fmt.Errorf("unexpected result format from Lua script")
	}
	if created == 0 {
		return fmt.Errorf("hold token already exists: %s", hold.Token)
	}

	return nil
}

func (l *redisLedger) Get(ctx context.Context, token string) (*Hold, error) {
	if l.client == nil {
		return nil, fmt.Errorf("redis client not available")
	}

	data, err := l.client.HGetAll(ctx, holdKey(token)).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read hold: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrReservationNotFound
	}

	seatIDs, err := l.client.LRange(ctx, holdSeatsKey(token), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read hold seats: %w", err)
	}

	eventID, err := uuid.Parse(data["event_id"])
	if err != nil {
		return nil, fmt.Errorf("corrupt hold entry %s: %w", token, err)
	}

	totalAmount, err := strconv.ParseFloat(data["total_amount"], 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt hold entry %s: %w", token, err)
	}

	createdAt, err := strconv.ParseInt(data["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt hold entry %s: %w", token, err)
	}

	expiresAt, err := strconv.ParseInt(data["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt hold entry %s: %w", token, err)
	}

	return &Hold{
		Token:       token,
		EventID:     eventID,
		SeatIDs:     seatIDs,
		TotalAmount: totalAmount,
		CreatedAt:   time.Unix(createdAt, 0),
		ExpiresAt:   time.Unix(expiresAt, 0),
	}, nil
}

func (l *redisLedger) Delete(ctx context.Context, token string) error {
	if l.client == nil {
		return fmt.Errorf("redis client not available")
	}

	keys := []string{holdKey(token), holdSeatsKey(token)}

	_, err := l.client.EvalSha(ctx, luaDeleteHold, keys).Result()
	if err != nil {
		_, err = l.client.Eval(ctx, luaDeleteHold, keys).Result()
		if err != nil {
			return fmt.Errorf("failed to delete hold: %w", err)
		}
	}

	return nil
}

// PreloadScripts loads the Lua scripts into Redis for better performance
func (l *redisLedger) PreloadScripts(ctx context.Context) error {
	if l.client == nil {
		return fmt.Errorf("redis client not available")
	}

	if _, err := l.client.ScriptLoad(ctx, luaCreateHold).Result(); err != nil {
		return fmt.Errorf("failed to load hold create script: %w", err)
	}
	if _, err := l.client.ScriptLoad(ctx, luaDeleteHold).Result(); err != nil {
		return fmt.Errorf("failed to load hold delete script: %w", err)
	}

	return nil
}
