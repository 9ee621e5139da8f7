// Package session はクライアントログインとViewerContextの構築を提供する。
// 開示エンジンは認証そのものを行わず、このパッケージが供給する
// ViewerContextを入力として受け取るのみである。
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/atelier/internal/model"
	"github.com/hitoshi/atelier/internal/repository"
)

// ServiceConfig はセッションサービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
	// PreviewMode は構築するViewerContextに引き継がれる。
	// プロセス起動時に1回だけ決まる読み取り専用の値。
	PreviewMode bool
}

// Service はログインセッションに関するビジネスロジックを提供する。
type Service struct {
	accountRepo repository.AccountRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	accountRepo repository.AccountRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		accountRepo: accountRepo,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// Authenticate はメールアドレスとパスワードを検証し、セッションを発行する。
// アカウントの不存在とパスワード不一致は区別せず、同一のエラーを返す。
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.Session, error) {
	// 1. アカウントの検索
	account, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		// 存在確認のタイミング差を減らすためダミー比較を行う
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, model.NewInvalidCredentialsError()
	}

	// 2. パスワードの検証
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	// 3. セッションの発行
	session, err := s.createSession(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("account logged in",
		slog.String("account_id", account.ID),
		slog.String("role", string(account.Role)),
	)

	return session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("account logged out", slog.String("session_id", sessionID))
	return nil
}

// CurrentAccount はセッションから現在のアカウントを取得する。
// セッションが無効・期限切れの場合はnilを返す。
func (s *Service) CurrentAccount(ctx context.Context, sessionID string) (*model.Account, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	account, err := s.accountRepo.FindByID(ctx, session.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	return account, nil
}

// BuildViewer はセッションIDからViewerContextを構築する。
// セッションの欠落・期限切れ・照会エラーはすべて未認証の閲覧者として
// 解決する（開示判定はフェイルクローズであるため、ここでエラーを
// 伝播させるより匿名に落とすほうが安全側に倒れる）。
func (s *Service) BuildViewer(ctx context.Context, sessionID string) model.ViewerContext {
	account, err := s.CurrentAccount(ctx, sessionID)
	if err != nil {
		slog.Warn("viewer resolution failed, treating as anonymous",
			slog.String("error", err.Error()),
		)
		return model.Anonymous(s.config.PreviewMode)
	}
	if account == nil {
		return model.Anonymous(s.config.PreviewMode)
	}

	return model.ViewerContext{
		Role:            account.Role,
		ClientID:        account.ClientID,
		PreviewOverride: s.config.PreviewMode,
	}
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, accountID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		AccountID: accountID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// dummyHash はアカウント不存在時のダミー比較に使うbcryptハッシュ。
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")
