package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/atelier/internal/model"
)

// PostgresPressSourceRepo はPostgreSQLを使用したプレスソースリポジトリ。
type PostgresPressSourceRepo struct {
	db *sql.DB
}

// NewPostgresPressSourceRepo はPostgresPressSourceRepoを生成する。
func NewPostgresPressSourceRepo(db *sql.DB) *PostgresPressSourceRepo {
	return &PostgresPressSourceRepo{db: db}
}

// ListDueForFetch はフェッチ対象のソースを取得する。
// 複数ワーカーの同時実行に備えFOR UPDATE SKIP LOCKEDで排他的に取得する。
func (r *PostgresPressSourceRepo) ListDueForFetch(ctx context.Context) ([]*model.PressSource, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, feed_url, fetch_status, consecutive_errors, error_message,
		        etag, last_modified, COALESCE(last_fetched_at, 'epoch'::timestamptz), next_fetch_at, created_at
		 FROM press_sources
		 WHERE next_fetch_at <= now() AND fetch_status = 'active'
		 FOR UPDATE SKIP LOCKED`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list due press sources: %w", err)
	}
	defer rows.Close()

	var sources []*model.PressSource
	for rows.Next() {
		source := &model.PressSource{}
		var status string
		if err := rows.Scan(&source.ID, &source.Name, &source.FeedURL, &status,
			&source.ConsecutiveErrors, &source.ErrorMessage, &source.ETag,
			&source.LastModified, &source.LastFetchedAt, &source.NextFetchAt,
			&source.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan press source: %w", err)
		}
		source.FetchStatus = model.PressFetchStatus(status)
		sources = append(sources, source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate press sources: %w", err)
	}

	return sources, nil
}

// UpdateFetchState はソースのフェッチ状態を更新する。
func (r *PostgresPressSourceRepo) UpdateFetchState(ctx context.Context, source *model.PressSource) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE press_sources
		 SET fetch_status = $2, consecutive_errors = $3, error_message = $4,
		     etag = $5, last_modified = $6, last_fetched_at = $7, next_fetch_at = $8
		 WHERE id = $1`,
		source.ID, string(source.FetchStatus), source.ConsecutiveErrors,
		source.ErrorMessage, source.ETag, source.LastModified,
		source.LastFetchedAt, source.NextFetchAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update press source fetch state: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PressSourceRepository = (*PostgresPressSourceRepo)(nil)

// PostgresPressMentionRepo はPostgreSQLを使用した掲載記事リポジトリ。
type PostgresPressMentionRepo struct {
	db *sql.DB
}

// NewPostgresPressMentionRepo はPostgresPressMentionRepoを生成する。
func NewPostgresPressMentionRepo(db *sql.DB) *PostgresPressMentionRepo {
	return &PostgresPressMentionRepo{db: db}
}

// Upsert は (source_id, link) をキーとして掲載記事を冪等に保存する。
// 既存レコードはタイトル・抜粋・画像URLを上書き更新する。
func (r *PostgresPressMentionRepo) Upsert(ctx context.Context, sourceID string, mention model.ParsedMention) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO press_mentions (id, source_id, title, link, summary, image_url, published_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (source_id, link) DO UPDATE
		 SET title = EXCLUDED.title, summary = EXCLUDED.summary, image_url = EXCLUDED.image_url`,
		uuid.New().String(), sourceID, mention.Title, mention.Link,
		mention.Summary, mention.ImageURL, mention.PublishedAt, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert press mention: %w", err)
	}
	return nil
}

// ListRecent は掲載記事をpublished_at降順で取得する。
func (r *PostgresPressMentionRepo) ListRecent(ctx context.Context, limit int) ([]*model.PressMention, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, source_id, title, link, summary, image_url, published_at, created_at
		 FROM press_mentions
		 ORDER BY published_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list press mentions: %w", err)
	}
	defer rows.Close()

	var mentions []*model.PressMention
	for rows.Next() {
		mention := &model.PressMention{}
		if err := rows.Scan(&mention.ID, &mention.SourceID, &mention.Title,
			&mention.Link, &mention.Summary, &mention.ImageURL,
			&mention.PublishedAt, &mention.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan press mention: %w", err)
		}
		mentions = append(mentions, mention)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate press mentions: %w", err)
	}

	return mentions, nil
}

// DeleteOlderThan は保持日数を超過した掲載記事を削除し、削除件数を返す。
func (r *PostgresPressMentionRepo) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	interval := fmt.Sprintf("%d days", days)
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM press_mentions WHERE published_at < now() - $1::interval`,
		interval,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old press mentions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted press mentions: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ PressMentionRepository = (*PostgresPressMentionRepo)(nil)
