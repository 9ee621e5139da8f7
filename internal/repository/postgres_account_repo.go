package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/atelier/internal/model"
)

// PostgresAccountRepo はPostgreSQLを使用したアカウントリポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	account := &model.Account{}
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, role, client_id, password_hash, created_at, updated_at
		 FROM accounts
		 WHERE id = $1`,
		id,
	).Scan(&account.ID, &account.Email, &account.Name, &role,
		&account.ClientID, &account.PasswordHash, &account.CreatedAt, &account.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	// 未知のロール値はRoleNoneに解析される（フェイルクローズ）
	account.Role = model.ParseViewerRole(role)
	return account, nil
}

// FindByEmail はメールアドレスでアカウントを検索する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	account := &model.Account{}
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, role, client_id, password_hash, created_at, updated_at
		 FROM accounts
		 WHERE email = $1`,
		email,
	).Scan(&account.ID, &account.Email, &account.Name, &role,
		&account.ClientID, &account.PasswordHash, &account.CreatedAt, &account.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account by email: %w", err)
	}

	account.Role = model.ParseViewerRole(role)
	return account, nil
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)
