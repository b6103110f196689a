package report

import (
	"time"
)

// Metadata is the per-session bag set by chat commands
type Metadata struct {
	Client     string    `json:"client,omitempty"`
	Site       string    `json:"site,omitempty"`
	Technician string    `json:"technician,omitempty"`
	Units      string    `json:"units,omitempty"`
	StartTime  string    `json:"start_time,omitempty"`
	ScopeType  ScopeType `json:"scope_type,omitempty"`
}

// Photo as received from the chat. Category is derived at report time.
type Photo struct {
	ID       string        `json:"id"`
	Ref      string        `json:"ref"`
	Caption  string        `json:"caption"`
	Category PhotoCategory `json:"category,omitempty"`
}

// Aggregate Root: Session, one per chat user
type Session struct {
	UserID    string    `json:"user_id"`
	Notes     []string  `json:"notes"`
	Photos    []Photo   `json:"photos"`
	Metadata  Metadata  `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession returns an empty session owned by userID.
func NewSession(userID string, now time.Time) *Session {
	return &Session{
		UserID:    userID,
		Notes:     []string{},
		Photos:    []Photo{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone deep-copies the session so a pipeline run never aliases store state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Notes = append(make([]string, 0, len(s.Notes)), s.Notes...)
	c.Photos = append(make([]Photo, 0, len(s.Photos)), s.Photos...)
	return &c
}

// PhotoRefs lists the asset refs held by the session.
func (s *Session) PhotoRefs() []string {
	refs := make([]string, 0, len(s.Photos))
	for _, p := range s.Photos {
		if p.Ref != "" {
			refs = append(refs, p.Ref)
		}
	}
	return refs
}

// ReportRecord is the audit row stored for every delivered report
type ReportRecord struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	FileName      string    `json:"file_name"`
	ArtifactURL   string    `json:"artifact_url,omitempty"`
	Format        string    `json:"format"`
	ScopeType     ScopeType `json:"scope_type,omitempty"`
	TotalNotes    int       `json:"total_notes"`
	CriticalCount int       `json:"critical_count"`
	WarningCount  int       `json:"warning_count"`
	PhotoCount    int       `json:"photo_count"`
	CreatedAt     time.Time `json:"created_at"`
}
