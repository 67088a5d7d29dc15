// Package shared holds cross-module helpers: the audit comment trail and
// small primitives that do not belong to one vertical.
package shared

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditComment is one entry in a document's comment trail.
type AuditComment struct {
	Entity   string    `json:"entity"`
	EntityID string    `json:"entity_id"`
	Text     string    `json:"text"`
	At       time.Time `json:"at"`
}

// AuditLogger appends comments to document_comments.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Comment persists one comment against the given document.
func (l *AuditLogger) Comment(ctx context.Context, entity, entityID, text string) error {
	if l == nil || l.pool == nil {
		return errors.New("audit logger not initialised")
	}
	if entity == "" || entityID == "" {
		return errors.New("audit comment requires entity and entity id")
	}
	_, err := l.pool.Exec(ctx,
		`INSERT INTO document_comments (entity, entity_id, comment, created_at) VALUES ($1, $2, $3, NOW())`,
		entity, entityID, text)
	return err
}

// Comments returns the trail for one document, newest first.
func (l *AuditLogger) Comments(ctx context.Context, entity, entityID string, limit int) ([]AuditComment, error) {
	if l == nil || l.pool == nil {
		return nil, errors.New("audit logger not initialised")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.pool.Query(ctx,
		`SELECT entity, entity_id, comment, created_at FROM document_comments
WHERE entity = $1 AND entity_id = $2 ORDER BY created_at DESC LIMIT $3`,
		entity, entityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AuditComment
	for rows.Next() {
		var c AuditComment
		if err := rows.Scan(&c.Entity, &c.EntityID, &c.Text, &c.At); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
