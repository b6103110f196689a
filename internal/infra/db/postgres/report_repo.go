package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/bryanwahyu/field-report/internal/domain/report"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// EnsureSchema creates the field_reports table when missing.
func (r *ReportRepository) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS field_reports (
  id             TEXT        PRIMARY KEY,
  user_id        TEXT        NOT NULL,
  file_name      TEXT        NOT NULL,
  artifact_url   TEXT        NOT NULL,
  format         TEXT        NOT NULL,
  scope_type     TEXT        NOT NULL,
  total_notes    INTEGER     NOT NULL,
  critical_count INTEGER     NOT NULL,
  warning_count  INTEGER     NOT NULL,
  photo_count    INTEGER     NOT NULL,
  created_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_field_reports_user_created ON field_reports (user_id, created_at DESC);
`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

// Save inserts or updates a delivered report record
func (r *ReportRepository) Save(ctx context.Context, rec *report.ReportRecord) error {
	const q = `
INSERT INTO field_reports
  (id, user_id, file_name, artifact_url, format, scope_type, total_notes, critical_count, warning_count, photo_count, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
  file_name=EXCLUDED.file_name,
  artifact_url=EXCLUDED.artifact_url;
`
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.UserID, rec.FileName, stringOrDash(rec.ArtifactURL), rec.Format,
		stringOrDash(string(rec.ScopeType)), rec.TotalNotes, rec.CriticalCount, rec.WarningCount,
		rec.PhotoCount, createdAt,
	)
	return err
}

// Latest returns the newest records for a user, created_at desc
func (r *ReportRepository) Latest(ctx context.Context, userID string, limit int) ([]*report.ReportRecord, error) {
	const q = `
SELECT id, user_id, file_name, artifact_url, format, scope_type, total_notes, critical_count, warning_count, photo_count, created_at
FROM field_reports
WHERE user_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2;
`
	rows, err := r.db.QueryContext(ctx, q, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*report.ReportRecord{}
	for rows.Next() {
		var rec report.ReportRecord
		var scope string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.FileName, &rec.ArtifactURL, &rec.Format, &scope,
			&rec.TotalNotes, &rec.CriticalCount, &rec.WarningCount, &rec.PhotoCount, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.ArtifactURL = dashToEmpty(rec.ArtifactURL)
		rec.ScopeType = report.ScopeType(dashToEmpty(scope))
		out = append(out, &rec)
	}
	return out, rows.Err()
}
