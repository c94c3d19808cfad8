package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shouni/gemini-jewelry-studio/pkg/domain"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// ErrOwnerRequired は所有者のない記録の読み書きを拒否します。
var ErrOwnerRequired = errors.New("history owner is required")

// DB は Store が利用する pgxpool.Pool のメソッドです。
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Schema は generations テーブルの定義です。
const Schema = `
CREATE TABLE IF NOT EXISTS generations (
	id            uuid PRIMARY KEY,
	created_at    timestamptz NOT NULL DEFAULT now(),
	user_id       uuid NOT NULL,
	image_url     text NOT NULL,
	thumbnail_url text,
	mode          text NOT NULL,
	aspect_ratio  text,
	prompt        text NOT NULL
);
CREATE INDEX IF NOT EXISTS generations_user_created_idx ON generations (user_id, created_at DESC);
`

// Store は Postgres 上の生成履歴です。すべての読み書きは所有者で絞り込みます。
type Store struct {
	db DB
}

// NewStore は Store を初期化します。
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Connect は接続プールを作成し、疎通を確認します。
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// EnsureSchema はテーブルがなければ作成します。
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, Schema)
	return err
}

// Insert は1件の記録を書き込みます。
func (s *Store) Insert(ctx context.Context, rec domain.HistoryRecord) error {
	if rec.OwnerID == "" {
		return ErrOwnerRequired
	}
	_, err := s.db.Exec(ctx, `
INSERT INTO generations (id, created_at, user_id, image_url, thumbnail_url, mode, aspect_ratio, prompt)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`, rec.ID, rec.CreatedAt, rec.OwnerID, rec.ImageRef, nullable(rec.ThumbnailRef), string(rec.Mode), nullable(string(rec.AspectRatio)), rec.Prompt)
	return err
}

// List は所有者の記録を新しい順に返します。limit は 1..MaxListLimit に丸めます。
func (s *Store) List(ctx context.Context, ownerID string, limit int) ([]domain.HistoryRecord, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	rows, err := s.db.Query(ctx, `
SELECT id, created_at, user_id, image_url, thumbnail_url, mode, aspect_ratio, prompt
FROM generations
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2;
`, ownerID, ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []domain.HistoryRecord{}
	for rows.Next() {
		var (
			rec           domain.HistoryRecord
			mode          string
			thumb, aspect *string
		)
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.OwnerID, &rec.ImageRef, &thumb, &mode, &aspect, &rec.Prompt); err != nil {
			return nil, err
		}
		if thumb != nil {
			rec.ThumbnailRef = *thumb
		}
		rec.Mode = domain.GeneratorMode(mode)
		if aspect != nil {
			rec.AspectRatio = domain.AspectRatio(*aspect)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ClampLimit は一覧の件数を既定値と上限に合わせます。
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
