package check

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"casecheck/internal/checks/models"
	id "casecheck/pkg/domain"
	"casecheck/pkg/platform/sentinel"
	txcontext "casecheck/pkg/platform/tx"
)

//go:embed schema.sql
var schema string

// uniqueViolation is the postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// PostgresStore persists checks in the checks table and their outcomes, one
// row per outcome ordered by seq, in check_outcomes.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate check schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) execer(ctx context.Context) txcontext.Executor {
	return txcontext.ExecutorFor(ctx, s.db)
}

func (s *PostgresStore) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return txcontext.Run(ctx, s.db, fn)
}

func (s *PostgresStore) Create(ctx context.Context, check *models.Check) error {
	row, err := toRow(check)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(ctx context.Context) error {
		_, err := s.execer(ctx).ExecContext(ctx, `
			INSERT INTO checks (
				id, matter_id, matter_category, check_type, status, selected_tasks,
				assessment, safe_harbour, provider_tasks, created_at, updated_at, submitted_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			uuid.UUID(check.ID), uuid.UUID(check.MatterID), check.MatterCategory, string(check.Type),
			string(check.Status), pq.Array(row.selectedTasks),
			row.assessment, row.safeHarbour, row.providerTasks,
			check.CreatedAt, check.UpdatedAt, check.SubmittedAt,
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				return fmt.Errorf("check %s: %w", check.ID, sentinel.ErrConflict)
			}
			return fmt.Errorf("insert check: %w", err)
		}
		return s.appendOutcomes(ctx, check, 0)
	})
}

// Update writes the mutable columns and appends outcomes recorded since the
// last write. The row update takes the row lock first so concurrent writers
// of the same check serialize on it.
func (s *PostgresStore) Update(ctx context.Context, check *models.Check) error {
	row, err := toRow(check)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(ctx context.Context) error {
		res, err := s.execer(ctx).ExecContext(ctx, `
			UPDATE checks SET
				matter_category = $2, status = $3, selected_tasks = $4,
				assessment = $5, safe_harbour = $6, provider_tasks = $7,
				updated_at = $8, submitted_at = $9
			WHERE id = $1`,
			uuid.UUID(check.ID), check.MatterCategory, string(check.Status), pq.Array(row.selectedTasks),
			row.assessment, row.safeHarbour, row.providerTasks,
			check.UpdatedAt, check.SubmittedAt,
		)
		if err != nil {
			return fmt.Errorf("update check: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("check %s: %w", check.ID, sentinel.ErrNotFound)
		}

		var stored int
		if err := s.execer(ctx).QueryRowContext(ctx,
			`SELECT COUNT(*) FROM check_outcomes WHERE check_id = $1`, uuid.UUID(check.ID),
		).Scan(&stored); err != nil {
			return fmt.Errorf("count outcomes: %w", err)
		}
		if stored > len(check.Outcomes) {
			return fmt.Errorf("check %s: outcomes are append-only: %w", check.ID, sentinel.ErrConflict)
		}
		return s.appendOutcomes(ctx, check, stored)
	})
}

func (s *PostgresStore) appendOutcomes(ctx context.Context, check *models.Check, from int) error {
	for seq := from; seq < len(check.Outcomes); seq++ {
		o := check.Outcomes[seq]
		var data any
		if o.Raw != nil {
			var err error
			if data, err = jsonParam(o.Raw); err != nil {
				return fmt.Errorf("marshal outcome data: %w", err)
			}
		}
		_, err := s.execer(ctx).ExecContext(ctx, `
			INSERT INTO check_outcomes (check_id, seq, task_type, result, data, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.UUID(check.ID), seq, string(o.TaskType), string(o.Result), data, o.RecordedAt,
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				return fmt.Errorf("outcome for %s: %w", o.TaskType, sentinel.ErrConflict)
			}
			return fmt.Errorf("insert outcome: %w", err)
		}
	}
	return nil
}

const selectChecks = `
	SELECT id, matter_id, matter_category, check_type, status, selected_tasks,
	       assessment, safe_harbour, provider_tasks, created_at, updated_at, submitted_at
	FROM checks`

func (s *PostgresStore) FindByID(ctx context.Context, checkID id.CheckID) (*models.Check, error) {
	checks, err := s.query(ctx, selectChecks+` WHERE id = $1`, uuid.UUID(checkID))
	if err != nil {
		return nil, err
	}
	if len(checks) == 0 {
		return nil, fmt.Errorf("check %s: %w", checkID, sentinel.ErrNotFound)
	}
	return checks[0], nil
}

func (s *PostgresStore) ListByMatter(ctx context.Context, matterID id.MatterID) ([]*models.Check, error) {
	return s.query(ctx, selectChecks+` WHERE matter_id = $1 ORDER BY created_at, id`, uuid.UUID(matterID))
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Check, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query checks: %w", err)
	}
	defer rows.Close()

	var (
		checks []*models.Check
		ids    []string
		byID   = make(map[uuid.UUID]*models.Check)
	)
	for rows.Next() {
		check, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		checks = append(checks, check)
		ids = append(ids, check.ID.String())
		byID[uuid.UUID(check.ID)] = check
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checks: %w", err)
	}
	if len(checks) == 0 {
		return nil, nil
	}

	if err := s.loadOutcomes(ctx, ids, byID); err != nil {
		return nil, err
	}
	return checks, nil
}

func (s *PostgresStore) loadOutcomes(ctx context.Context, ids []string, byID map[uuid.UUID]*models.Check) error {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT check_id, task_type, result, data, recorded_at
		FROM check_outcomes
		WHERE check_id = ANY($1::uuid[])
		ORDER BY check_id, seq`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			checkID    uuid.UUID
			taskType   string
			result     string
			data       []byte
			recordedAt time.Time
		)
		if err := rows.Scan(&checkID, &taskType, &result, &data, &recordedAt); err != nil {
			return fmt.Errorf("scan outcome: %w", err)
		}
		var raw map[string]any
		if len(data) > 0 {
			if err := json.Unmarshal(data, &raw); err != nil {
				return fmt.Errorf("decode outcome data: %w", err)
			}
		}
		check := byID[checkID]
		if check == nil {
			continue
		}
		check.Outcomes = append(check.Outcomes, models.NewTaskOutcome(
			models.TaskType(taskType), models.Result(result), raw, recordedAt.UTC(),
		))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate outcomes: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCheck(row scanner) (*models.Check, error) {
	var (
		checkID       uuid.UUID
		matterID      uuid.UUID
		checkType     string
		status        string
		selected      []string
		assessment    []byte
		safeHarbour   []byte
		providerTasks []byte
		submittedAt   sql.NullTime
		check         models.Check
	)
	err := row.Scan(
		&checkID, &matterID, &check.MatterCategory, &checkType, &status, pq.Array(&selected),
		&assessment, &safeHarbour, &providerTasks,
		&check.CreatedAt, &check.UpdatedAt, &submittedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan check: %w", err)
	}

	check.ID = id.CheckID(checkID)
	check.MatterID = id.MatterID(matterID)
	check.Type = models.CheckTypeID(checkType)
	check.Status = models.CheckStatus(status)
	check.CreatedAt = check.CreatedAt.UTC()
	check.UpdatedAt = check.UpdatedAt.UTC()
	check.SelectedTasks = models.NewTaskSet()
	for _, t := range selected {
		check.SelectedTasks[models.TaskType(t)] = struct{}{}
	}
	if submittedAt.Valid {
		t := submittedAt.Time.UTC()
		check.SubmittedAt = &t
	}
	if err := decodeNullable(assessment, &check.Assessment); err != nil {
		return nil, fmt.Errorf("decode assessment: %w", err)
	}
	if err := decodeNullable(safeHarbour, &check.SafeHarbour); err != nil {
		return nil, fmt.Errorf("decode safe harbour: %w", err)
	}
	if len(providerTasks) > 0 {
		if err := json.Unmarshal(providerTasks, &check.ProviderTasks); err != nil {
			return nil, fmt.Errorf("decode provider tasks: %w", err)
		}
	}
	return &check, nil
}

func decodeNullable[T any](data []byte, dst **T) error {
	if len(data) == 0 {
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}

type checkRow struct {
	selectedTasks []string
	assessment    any
	safeHarbour   any
	providerTasks any
}

// jsonParam renders v as a JSONB parameter; nil stays NULL. lib/pq encodes
// []byte as bytea, so JSON is passed as a string.
func jsonParam(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func toRow(check *models.Check) (checkRow, error) {
	row := checkRow{selectedTasks: check.SelectedTasks.Strings()}
	if row.selectedTasks == nil {
		row.selectedTasks = []string{}
	}
	var err error
	if check.Assessment != nil {
		if row.assessment, err = jsonParam(check.Assessment); err != nil {
			return row, fmt.Errorf("marshal assessment: %w", err)
		}
	}
	if check.SafeHarbour != nil {
		if row.safeHarbour, err = jsonParam(check.SafeHarbour); err != nil {
			return row, fmt.Errorf("marshal safe harbour: %w", err)
		}
	}
	if len(check.ProviderTasks) > 0 {
		if row.providerTasks, err = jsonParam(check.ProviderTasks); err != nil {
			return row, fmt.Errorf("marshal provider tasks: %w", err)
		}
	}
	return row, nil
}
