package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrNotFound = sql.ErrNoRows

// Key identifies one cached analysis. Language is part of the key because
// the service translates names and descriptions.
type Key struct {
	ImageHash string
	Engine    string
	Model     string
	Language  string
}

// CacheRepo keeps raw analysis responses that normalized cleanly, so a
// repeated scan of the same photo skips the vision call.
type CacheRepo struct{ DB *sql.DB }

func NewCacheRepo(db *sql.DB) *CacheRepo { return &CacheRepo{DB: db} }

const schemaDDL = `
create table if not exists analysis_cache (
  image_hash text not null,
  engine     text not null,
  model      text not null,
  language   text not null,
  raw_json   text not null,
  created_at timestamptz not null default now(),
  primary key (image_hash, engine, model, language)
)`

func (r *CacheRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, schemaDDL)
	return err
}

// Find returns the cached raw response for k. With maxAge > 0 older rows
// count as missing.
func (r *CacheRepo) Find(ctx context.Context, k Key, maxAge time.Duration) (string, error) {
	const q = `
select raw_json, created_at
from analysis_cache
where image_hash = $1 and engine = $2 and model = $3 and language = $4`
	var (
		raw string
		ts  time.Time
	)
	if err := r.DB.QueryRowContext(ctx, q, k.ImageHash, k.Engine, k.Model, k.Language).Scan(&raw, &ts); err != nil {
		return "", err
	}
	if maxAge > 0 && time.Since(ts) > maxAge {
		return "", ErrNotFound
	}
	return raw, nil
}

func (r *CacheRepo) Upsert(ctx context.Context, k Key, raw string) error {
	const q = `
insert into analysis_cache (image_hash, engine, model, language, raw_json, created_at)
values ($1,$2,$3,$4,$5,now())
on conflict (image_hash, engine, model, language) do update
set raw_json = excluded.raw_json,
    created_at = excluded.created_at`
	_, err := r.DB.ExecContext(ctx, q, k.ImageHash, k.Engine, k.Model, k.Language, raw)
	return err
}

// PurgeOlderThan drops stale rows so the table does not grow without bound.
func (r *CacheRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().Add(-olderThan)
	res, err := r.DB.ExecContext(ctx, `delete from analysis_cache where created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}
