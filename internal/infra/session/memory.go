package session

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/bryanwahyu/field-report/internal/application"
	"github.com/bryanwahyu/field-report/internal/domain/report"
)

// Memory keeps sessions in process. A zero ttl means sessions live until cleared.
type Memory struct {
	cache *cache.Cache
	clock application.Clock
	mu    sync.Mutex // serializes get-or-create
}

func NewMemory(ttl time.Duration, clock application.Clock) *Memory {
	exp, cleanup := cache.NoExpiration, time.Duration(0)
	if ttl > 0 {
		exp, cleanup = ttl, ttl/2
	}
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Memory{cache: cache.New(exp, cleanup), clock: clock}
}

func (m *Memory) Get(_ context.Context, userID string) (*report.Session, error) {
	if x, found := m.cache.Get(userID); found {
		return x.(*report.Session).Clone(), nil
	}
	return nil, report.ErrSessionNotFound
}

func (m *Memory) Create(_ context.Context, userID string) (*report.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if x, found := m.cache.Get(userID); found {
		return x.(*report.Session).Clone(), nil
	}
	s := report.NewSession(userID, m.clock.Now())
	m.cache.Set(userID, s.Clone(), cache.DefaultExpiration)
	return s, nil
}

func (m *Memory) Save(_ context.Context, s *report.Session) error {
	m.cache.Set(s.UserID, s.Clone(), cache.DefaultExpiration)
	return nil
}

func (m *Memory) Delete(_ context.Context, userID string) error {
	m.cache.Delete(userID)
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.cache.Flush()
	return nil
}

// Count is the number of live sessions.
func (m *Memory) Count() int { return m.cache.ItemCount() }
