package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/atelier/internal/model"
)

// PostgresContentRepo はPostgreSQLを使用したコンテンツリポジトリ。
// 開示エンジン側に書き込み経路はなく、読み取り専用のクエリのみを提供する。
type PostgresContentRepo struct {
	db *sql.DB
}

// NewPostgresContentRepo はPostgresContentRepoを生成する。
func NewPostgresContentRepo(db *sql.DB) *PostgresContentRepo {
	return &PostgresContentRepo{db: db}
}

const contentColumns = `id, slug, title, excerpt, body, is_protected, category,
	overview_route, materials_route, created_at, updated_at`

// List は全コンテンツをスラグ昇順で取得する。
func (r *PostgresContentRepo) List(ctx context.Context) ([]*model.ContentItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contentColumns+` FROM content_items ORDER BY slug`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list content items: %w", err)
	}
	defer rows.Close()

	var items []*model.ContentItem
	for rows.Next() {
		item, err := scanContentItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate content items: %w", err)
	}

	return items, nil
}

// FindBySlug はスラグでコンテンツを検索する。見つからない場合はnilを返す。
func (r *PostgresContentRepo) FindBySlug(ctx context.Context, slug string) (*model.ContentItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+contentColumns+` FROM content_items WHERE slug = $1`,
		slug,
	)

	item, err := scanContentItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通部分。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanContentItem(row rowScanner) (*model.ContentItem, error) {
	item := &model.ContentItem{}
	var category string
	err := row.Scan(&item.ID, &item.Slug, &item.Title, &item.Excerpt, &item.Body,
		&item.IsProtected, &category, &item.OverviewRoute, &item.MaterialsRoute,
		&item.CreatedAt, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan content item: %w", err)
	}
	item.Category = model.ContentCategory(category)
	return item, nil
}

// compile-time interface check
var _ ContentRepository = (*PostgresContentRepo)(nil)
