// Package cache keeps pending registration passcodes in Redis.
package cache

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dtroode/gophchat-server/internal/model"
)

const (
	keyPrefix  = "otp:"
	codeDigits = 6
)

var codeSpace = big.NewInt(1_000_000)

// verifyScript returns 0 when no code is pending, 1 when the code matched and
// was consumed, 2 on mismatch. A mismatch bumps the attempt counter and drops
// the entry once ARGV[2] attempts are reached (0 means unlimited).
var verifyScript = redis.NewScript(`
local code = redis.call('HGET', KEYS[1], 'code')
if not code then
	return 0
end
if code == ARGV[1] then
	redis.call('DEL', KEYS[1])
	return 1
end
local attempts = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
local limit = tonumber(ARGV[2])
if limit > 0 and attempts >= limit then
	redis.call('DEL', KEYS[1])
end
return 2
`)

var _ model.PasscodeCache = (*PasscodeCache)(nil)

// PasscodeCache stores one pending code per email as a Redis hash with a TTL.
type PasscodeCache struct {
	client      *redis.Client
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
}

// NewPasscodeCache creates a cache over client.
func NewPasscodeCache(client *redis.Client, ttl time.Duration, maxAttempts int) *PasscodeCache {
	return &PasscodeCache{
		client:      client,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

func key(email string) string {
	return keyPrefix + email
}

// Issue generates a fresh code for email and overwrites any pending one.
func (c *PasscodeCache) Issue(ctx context.Context, email string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	k := key(email)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k, "code", code, "created_at", c.now().Unix(), "attempts", 0)
		pipe.Expire(ctx, k, c.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to store passcode: %w", err)
	}

	return code, nil
}

// Verify consumes the pending code for email if it equals code.
func (c *PasscodeCache) Verify(ctx context.Context, email, code string) error {
	res, err := verifyScript.Run(ctx, c.client, []string{key(email)}, code, c.maxAttempts).Int()
	if err != nil {
		return fmt.Errorf("failed to verify passcode: %w", err)
	}

	switch res {
	case 0:
		return model.ErrPasscodeNotFound
	case 1:
		return nil
	default:
		return model.ErrPasscodeMismatch
	}
}

// Ping checks the Redis connection.
func (c *PasscodeCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate passcode: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
