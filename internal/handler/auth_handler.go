package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/atelier/internal/links"
	"github.com/hitoshi/atelier/internal/metrics"
	"github.com/hitoshi/atelier/internal/middleware"
	"github.com/hitoshi/atelier/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Authenticate はメールアドレスとパスワードでログインし、セッションを生成する。
	Authenticate(ctx context.Context, email, password string) (*model.Session, error)
	// Logout はセッションを破棄する。
	Logout(ctx context.Context, sessionID string) error
	// CurrentAccount はセッションIDからアカウントを取得する。
	// 無効・期限切れセッションにはnilを返す。
	CurrentAccount(ctx context.Context, sessionID string) (*model.Account, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はクライアントログイン関連のHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	collector metrics.MetricsCollector
	config    AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, collector metrics.MetricsCollector, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:   service,
		collector: collector,
		config:    config,
	}
}

// --- リクエスト/レスポンス型 ---

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Redirect string `json:"redirect,omitempty"`
}

// loginResponse はログイン成功時のレスポンス。
// Redirectは検証済みのサイト内パスのみを含む。
type loginResponse struct {
	Redirect string `json:"redirect"`
}

// accountResponse はログイン中アカウントのレスポンス。
type accountResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	ClientID string `json:"client_id,omitempty"`
}

// Login はメールアドレスとパスワードでログインする。
// POST /clients/login
//
// redirectパラメータはオープンリダイレクト対策として検証され、
// サイト内の絶対パス以外は既定のランディングページに差し替えられる。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディが不正です。",
			Category: "validation",
			Action:   "入力内容を確認してください。",
		})
		return
	}

	// クエリパラメータ経由のredirectも受け付ける（ログインページからの遷移）
	redirect := req.Redirect
	if redirect == "" {
		redirect = r.URL.Query().Get("redirect")
	}

	// オープンリダイレクト検証: 不正な値は既定のランディングに差し替え
	safeRedirect, ok := links.SafeRedirectPath(redirect)
	if !ok && redirect != "" {
		slog.Warn("rejected unsafe redirect target",
			slog.String("redirect", redirect),
		)
	}

	session, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.collector.RecordLoginFailure()
		handleServiceError(w, err)
		return
	}

	h.collector.RecordLoginSuccess()

	// セッションCookieを設定（HTTP Only）
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loginResponse{Redirect: safeRedirect})
}

// Logout はセッションを破棄する。
// POST /clients/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	// セッションCookieの取得
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		// セッションをDBから削除
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	// セッションCookieを削除
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

// Me はログイン中のアカウント情報を返す。
// GET /clients/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	account, err := h.service.CurrentAccount(r.Context(), sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if account == nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accountResponse{
		ID:       account.ID,
		Email:    account.Email,
		Name:     account.Name,
		Role:     string(account.Role),
		ClientID: account.ClientID,
	})
}
