package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresEntitlementRepo はPostgreSQLを使用したエンタイトルメントリポジトリ。
// 参照データの読み取りのみを提供し、書き込みはコンテンツ管理側の
// マイグレーションとして行われる。
type PostgresEntitlementRepo struct {
	db *sql.DB
}

// NewPostgresEntitlementRepo はPostgresEntitlementRepoを生成する。
func NewPostgresEntitlementRepo(db *sql.DB) *PostgresEntitlementRepo {
	return &PostgresEntitlementRepo{db: db}
}

// ListGrants は全クライアントの許可スラグ一覧を取得する。
func (r *PostgresEntitlementRepo) ListGrants(ctx context.Context) (map[string][]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT client_id, slug FROM entitlements ORDER BY client_id, slug`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list entitlement grants: %w", err)
	}
	defer rows.Close()

	grants := make(map[string][]string)
	for rows.Next() {
		var clientID, slug string
		if err := rows.Scan(&clientID, &slug); err != nil {
			return nil, fmt.Errorf("failed to scan entitlement grant: %w", err)
		}
		grants[clientID] = append(grants[clientID], slug)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entitlement grants: %w", err)
	}

	return grants, nil
}

// compile-time interface check
var _ EntitlementRepository = (*PostgresEntitlementRepo)(nil)
