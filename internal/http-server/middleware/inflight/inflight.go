package inflight

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/redis/go-redis/v9"
	"golang.org/x/exp/slog"

	resp "go-gamehall/internal/lib/api/response"
	"go-gamehall/internal/lib/logger/sl"
)

const (
	leaseTTL = 10 * time.Second
	maxBody  = 1 << 20
)

// Locker hands out a short lease per user. A second acquire before the
// first release fails, which is how concurrent wagers from one user are
// serialized across instances.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, key, "1", ttl).Result()
}

func (l *RedisLocker) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, key).Err()
}

// New returns a middleware that admits at most one in-flight wager
// request per user. The user handle is peeked from the JSON body, which
// is then restored for the handler.
func New(log *slog.Logger, locker Locker) func(next http.Handler) http.Handler {
	log = log.With(slog.String("component", "middleware/inflight"))

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
			if err != nil {
				render.JSON(w, r, resp.Error("failed to read request body", http.StatusBadRequest))

				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))

			var peek struct {
				UserUUID string `json:"user_uuid"`
			}

			// A body without a handle falls through to the handler's
			// own validation.
			if json.Unmarshal(body, &peek) != nil || peek.UserUUID == "" {
				next.ServeHTTP(w, r)

				return
			}

			key := "inflight:user:" + peek.UserUUID

			ok, err := locker.Acquire(r.Context(), key, leaseTTL)
			if err != nil {
				log.Error("failed to acquire lease", sl.Err(err))

				render.JSON(w, r, resp.Error("failed to acquire request lease", http.StatusInternalServerError))

				return
			}

			if !ok {
				render.JSON(w, r, resp.Error("another request is in flight", http.StatusTooManyRequests))

				return
			}

			defer func() {
				if err := locker.Release(context.Background(), key); err != nil {
					log.Error("failed to release lease", sl.Err(err))
				}
			}()

			next.ServeHTTP(w, r)
		}

		return http.HandlerFunc(fn)
	}
}
