package session

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Store is the process-wide registry of active call sessions, keyed by
// CallSid. Sessions are created on first reference and removed when the
// call disconnects. When a Redis client is provided, session metadata is
// mirrored there for external visibility; Redis being down never affects
// dialogue handling.
type Store struct {
	sessions map[string]*Session
	mu       sync.RWMutex

	redis      *redis.Client
	maxHistory int
	timeout    time.Duration
	log        zerolog.Logger
}

// NewStore creates a session store. redisAddr may be empty to run without
// the Redis mirror.
func NewStore(redisAddr, redisPassword string, maxHistory int, timeout time.Duration, log zerolog.Logger) *Store {
	var redisClient *redis.Client
	if redisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: redisPassword,
			DB:       0,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, session mirror disabled")
			redisClient = nil
		}
	}

	return &Store{
		sessions:   make(map[string]*Session),
		redis:      redisClient,
		maxHistory: maxHistory,
		timeout:    timeout,
		log:        log,
	}
}

// Get returns the session for a call, creating it on first reference.
// Repeated calls with the same CallSid return the same instance.
func (st *Store) Get(callSID string) *Session {
	st.mu.RLock()
	s, ok := st.sessions[callSID]
	st.mu.RUnlock()
	if ok {
		return s
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[callSID]; ok {
		return s
	}
	s = New(callSID, st.maxHistory)
	st.sessions[callSID] = s
	st.mirror(callSID, s)
	return s
}

// Remove drops a call's session. Idempotent.
func (st *Store) Remove(callSID string) {
	st.mu.Lock()
	_, ok := st.sessions[callSID]
	delete(st.sessions, callSID)
	st.mu.Unlock()

	if ok && st.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		st.redis.Del(ctx, "call:"+callSID)
		st.redis.SRem(ctx, "active_calls", callSID)
	}
}

// Count returns the number of active sessions.
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func (st *Store) mirror(callSID string, s *Session) {
	if st.redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st.redis.HSet(ctx, "call:"+callSID, map[string]interface{}{
		"created_at": s.CreatedAt.Format(time.RFC3339),
		"status":     "active",
	})
	st.redis.SAdd(ctx, "active_calls", callSID)
	if st.timeout > 0 {
		st.redis.Expire(ctx, "call:"+callSID, st.timeout)
	}
}

// CleanupIdle removes sessions inactive past the configured timeout.
// Normally calls are removed on disconnect; this is a backstop for
// connections that died without one.
func (st *Store) CleanupIdle() {
	if st.timeout <= 0 {
		return
	}
	now := time.Now()

	st.mu.Lock()
	var stale []string
	for id, s := range st.sessions {
		if now.Sub(s.IdleSince()) > st.timeout {
			delete(st.sessions, id)
			stale = append(stale, id)
		}
	}
	st.mu.Unlock()

	for _, id := range stale {
		st.log.Info().Str("call_sid", id).Msg("reaped idle session")
		if st.redis != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			st.redis.Del(ctx, "call:"+id)
			st.redis.SRem(ctx, "active_calls", id)
			cancel()
		}
	}
}

// StartCleanupRoutine runs CleanupIdle once a minute until ctx is done.
func (st *Store) StartCleanupRoutine(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.CleanupIdle()
		}
	}
}

// Shutdown drops all sessions and closes the Redis mirror.
func (st *Store) Shutdown() {
	st.mu.Lock()
	for id := range st.sessions {
		delete(st.sessions, id)
	}
	st.mu.Unlock()

	if st.redis != nil {
		st.redis.Close()
	}
}
