package mysql

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
  id             VARCHAR(36)  NOT NULL PRIMARY KEY,
  user_id        VARCHAR(128) NOT NULL,
  file_name      VARCHAR(255) NOT NULL,
  artifact_url   TEXT         NOT NULL,
  format         VARCHAR(16)  NOT NULL,
  scope_type     VARCHAR(32)  NOT NULL,
  total_notes    INT          NOT NULL,
  critical_count INT          NOT NULL,
  warning_count  INT          NOT NULL,
  photo_count    INT          NOT NULL,
  created_at     DATETIME(3)  NOT NULL,
  INDEX idx_field_reports_user_created (user_id, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

// Save inserts a delivered report record
func (r *ReportRepository) Save(ctx context.Context, rec *report.ReportRecord) error {
	const q = `
INSERT INTO field_reports
  (id, user_id, file_name, artifact_url, format, scope_type, total_notes, critical_count, warning_count, photo_count, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  file_name=VALUES(file_name), artifact_url=VALUES(artifact_url);
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
WHERE user_id=?
ORDER BY created_at DESC, id DESC
LIMIT ?;
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
