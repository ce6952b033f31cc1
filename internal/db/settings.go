package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/transit-complaints/backend/internal/models"
)

// SettingsStore persists the key-value settings table. It satisfies
// settings.Store.
type SettingsStore struct {
	pool Pool
}

func (s *Store) Settings() *SettingsStore {
	return &SettingsStore{pool: s.Pool}
}

func (s *SettingsStore) Get(ctx context.Context, key string) (models.Setting, bool, error) {
	var (
		out models.Setting
		raw []byte
	)
	err := s.pool.QueryRow(ctx, `SELECT key, value, updated_by, updated_at FROM settings WHERE key = $1`, key).
		Scan(&out.Key, &raw, &out.UpdatedBy, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Setting{}, false, nil
	}
	if err != nil {
		return models.Setting{}, false, eris.Wrapf(err, "db: get setting %s", key)
	}
	out.Value = raw
	return out, true, nil
}

func (s *SettingsStore) Upsert(ctx context.Context, st models.Setting) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO settings (key, value, updated_by, updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at
	`, st.Key, []byte(st.Value), st.UpdatedBy, st.UpdatedAt)
	if err != nil {
		return eris.Wrapf(err, "db: upsert setting %s", st.Key)
	}
	return nil
}

func (s *SettingsStore) InsertIfAbsent(ctx context.Context, st models.Setting) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO settings (key, value, updated_by, updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (key) DO NOTHING
	`, st.Key, []byte(st.Value), st.UpdatedBy, st.UpdatedAt)
	if err != nil {
		return false, eris.Wrapf(err, "db: insert setting %s", st.Key)
	}
	return tag.RowsAffected() == 1, nil
}
