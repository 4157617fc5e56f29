package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	id "casecheck/pkg/domain"
	audit "casecheck/pkg/platform/audit"
	txcontext "casecheck/pkg/platform/tx"

	"github.com/google/uuid"
)

//go:embed schema.sql
var schema string

// Store implements audit.Store on the audit_events table. When the context
// carries a transaction the insert joins it, so audit rows commit together
// with the check change they describe.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the audit_events table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate audit schema: %w", err)
	}
	return nil
}

func (s *Store) execer(ctx context.Context) txcontext.Executor {
	return txcontext.ExecutorFor(ctx, s.db)
}

// Append inserts an audit event.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	// Always derive category from action
	category := audit.AuditEvent(event.Action).Category()

	// lib/pq sends []byte as bytea, so JSONB goes over the wire as a string.
	var details any
	if len(event.Details) > 0 {
		b, err := json.Marshal(event.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		details = string(b)
	}

	var matterID *uuid.UUID
	if !event.MatterID.IsNil() {
		mid := uuid.UUID(event.MatterID)
		matterID = &mid
	}

	query := `
		INSERT INTO audit_events (
			id, category, timestamp, check_id, matter_id, action,
			decision, reason, request_id, actor_id, details
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.New(),
		string(category),
		event.Timestamp,
		uuid.UUID(event.CheckID),
		matterID,
		event.Action,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.ActorID,
		details,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByCheck returns the events of a check in insertion order.
func (s *Store) ListByCheck(ctx context.Context, checkID id.CheckID) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, check_id, matter_id, action,
			   decision, reason, request_id, actor_id, details
		FROM audit_events
		WHERE check_id = $1
		ORDER BY seq ASC
	`

	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(checkID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

// ListRecent returns the N most recent events, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, check_id, matter_id, action,
			   decision, reason, request_id, actor_id, details
		FROM audit_events
		ORDER BY seq DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

func (s *Store) scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event

	for rows.Next() {
		var (
			category string
			event    audit.Event
			checkID  uuid.UUID
			matterID uuid.NullUUID
			details  []byte
		)

		err := rows.Scan(
			&category,
			&event.Timestamp,
			&checkID,
			&matterID,
			&event.Action,
			&event.Decision,
			&event.Reason,
			&event.RequestID,
			&event.ActorID,
			&details,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		event.Category = audit.EventCategory(category)
		event.CheckID = id.CheckID(checkID)
		if matterID.Valid {
			event.MatterID = id.MatterID(matterID.UUID)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &event.Details); err != nil {
				return nil, fmt.Errorf("decode audit details: %w", err)
			}
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}

	return events, nil
}
