package db

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/transit-complaints/backend/internal/models"
)

var ErrNotFound = errors.New("not found")

//go:embed schema.sql
var schemaSQL string

// Pool is the subset of *pgxpool.Pool the store uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

type Store struct {
	Pool Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "db: parse config")
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "db: connect")
	}
	return &Store{Pool: pool}, nil
}

func NewWithPool(pool Pool) *Store {
	return &Store{Pool: pool}
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, schemaSQL); err != nil {
		return eris.Wrap(err, "db: apply schema")
	}
	return nil
}

// WithTx runs fn in a transaction, committing only when fn returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "db: begin")
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "db: commit")
	}
	return nil
}

const complaintColumns = `id, title, description, category, incident_at, location, vehicle_number,
	submitted_by, status, priority, analysis, created_at, updated_at`

func (s *Store) InsertComplaint(ctx context.Context, c models.Complaint) error {
	analysis, err := encodeAnalysis(c.Analysis)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO complaints (`+complaintColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, c.ID, c.Title, c.Description, c.Category, c.DateTime, c.Location, c.VehicleNumber,
		c.SubmittedBy, c.Status, c.Priority, analysis, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return eris.Wrapf(err, "db: insert complaint %s", c.ID)
	}
	return nil
}

func (s *Store) GetComplaint(ctx context.Context, id string) (models.Complaint, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE id = $1`, id)
	c, err := scanComplaint(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Complaint{}, ErrNotFound
	}
	if err != nil {
		return models.Complaint{}, eris.Wrapf(err, "db: get complaint %s", id)
	}
	return c, nil
}

func (s *Store) ListComplaints(ctx context.Context, f models.ComplaintFilter) ([]models.Complaint, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + complaintColumns + ` FROM complaints`
	var args []any
	var wheres []string
	if f.Status != "" {
		args = append(args, f.Status)
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Priority != "" {
		args = append(args, f.Priority)
		wheres = append(wheres, fmt.Sprintf("priority = $%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		wheres = append(wheres, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		wheres = append(wheres, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "db: list complaints")
	}
	defer rows.Close()

	out := []models.Complaint{}
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, eris.Wrap(err, "db: scan complaint")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateAnalysis attaches a to the complaint and copies its priority onto the
// record.
func (s *Store) UpdateAnalysis(ctx context.Context, id string, a models.PriorityAnalysis) error {
	raw, err := encodeAnalysis(&a)
	if err != nil {
		return err
	}
	tag, err := s.Pool.Exec(ctx, `
		UPDATE complaints SET analysis = $2, priority = $3, updated_at = $4
		WHERE id = $1
	`, id, raw, a.Priority, time.Now().UTC())
	if err != nil {
		return eris.Wrapf(err, "db: update analysis %s", id)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus changes the status and returns the updated record, both in one
// transaction.
func (s *Store) UpdateStatus(ctx context.Context, id string, status string) (models.Complaint, error) {
	var out models.Complaint
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE complaints SET status = $2, updated_at = $3 WHERE id = $1`, id, status, time.Now().UTC())
		if err != nil {
			return eris.Wrapf(err, "db: update status %s", id)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		out, err = scanComplaint(tx.QueryRow(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE id = $1`, id))
		if err != nil {
			return eris.Wrapf(err, "db: reload complaint %s", id)
		}
		return nil
	})
	if err != nil {
		return models.Complaint{}, err
	}
	return out, nil
}

func scanComplaint(row pgx.Row) (models.Complaint, error) {
	var (
		c        models.Complaint
		analysis []byte
	)
	if err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.Category, &c.DateTime, &c.Location, &c.VehicleNumber,
		&c.SubmittedBy, &c.Status, &c.Priority, &analysis, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return models.Complaint{}, err
	}
	if len(analysis) > 0 {
		var a models.PriorityAnalysis
		if err := json.Unmarshal(analysis, &a); err != nil {
			return models.Complaint{}, eris.Wrapf(err, "decode analysis of %s", c.ID)
		}
		c.Analysis = &a
	}
	return c, nil
}

func encodeAnalysis(a *models.PriorityAnalysis) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, eris.Wrap(err, "db: encode analysis")
	}
	return b, nil
}
