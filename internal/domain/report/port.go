package report

import (
	"context"
	"time"
)

// SessionStore port, keyed by user identity
// Implementations hand out copies; mutating a returned session changes nothing until Save.
type SessionStore interface {
	// Get returns ErrSessionNotFound when the user has no session.
	Get(ctx context.Context, userID string) (*Session, error)
	// Create returns the existing session or stores a new empty one.
	Create(ctx context.Context, userID string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, userID string) error
	// Clear drops every session, used on shutdown.
	Clear(ctx context.Context) error
}

// BinaryFetcher port (ambil file dari chat transport)
type BinaryFetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// AssetStore port for temporary photo binaries and their retention
type AssetStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, refs []string) error
	PurgeOlderThan(ctx context.Context, age time.Duration) (int, error)
}

// ArtifactStore port for delivered report documents
type ArtifactStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Renderer port, turns report data into a document
type Renderer interface {
	Render(ctx context.Context, data ReportData) ([]byte, error)
	Extension() string
	ContentType() string
}

// ReportRepository port (persistence for delivered reports)
type ReportRepository interface {
	Save(ctx context.Context, r *ReportRecord) error
	Latest(ctx context.Context, userID string, limit int) ([]*ReportRecord, error)
}
