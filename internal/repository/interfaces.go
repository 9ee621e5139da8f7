// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/atelier/internal/model"
)

// AccountRepository はアカウントデータの永続化インターフェース。
type AccountRepository interface {
	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Account, error)

	// FindByEmail はメールアドレスでアカウントを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// ContentRepository は開示対象コンテンツの読み取りインターフェース。
// 開示エンジンはコンテンツを取得するのみで、書き込み経路を持たない。
type ContentRepository interface {
	// List は全コンテンツをスラグ昇順で取得する。
	List(ctx context.Context) ([]*model.ContentItem, error)

	// FindBySlug はスラグでコンテンツを検索する。見つからない場合はnilを返す。
	FindBySlug(ctx context.Context, slug string) (*model.ContentItem, error)
}

// EntitlementRepository はエンタイトルメント参照データの読み取りインターフェース。
type EntitlementRepository interface {
	// ListGrants は全クライアントの許可スラグ一覧を取得する。
	ListGrants(ctx context.Context) (map[string][]string, error)
}

// PressSourceRepository はプレスソースの永続化インターフェース。
type PressSourceRepository interface {
	// ListDueForFetch はフェッチ対象のソースを取得する。
	// next_fetch_at <= now() かつ fetch_status = 'active' のソースを
	// FOR UPDATE SKIP LOCKEDで排他的に取得する。
	ListDueForFetch(ctx context.Context) ([]*model.PressSource, error)

	// UpdateFetchState はソースのフェッチ状態を更新する。
	// fetch_status、consecutive_errors、error_message、next_fetch_at、
	// etag、last_modified、last_fetched_atを更新する。
	UpdateFetchState(ctx context.Context, source *model.PressSource) error
}

// PressMentionRepository は掲載記事の永続化インターフェース。
type PressMentionRepository interface {
	// Upsert は (source_id, link) をキーとして掲載記事を冪等に保存する。
	Upsert(ctx context.Context, sourceID string, mention model.ParsedMention) error

	// ListRecent は掲載記事をpublished_at降順で取得する。
	ListRecent(ctx context.Context, limit int) ([]*model.PressMention, error)

	// DeleteOlderThan は保持日数を超過した掲載記事を削除し、削除件数を返す。
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}
