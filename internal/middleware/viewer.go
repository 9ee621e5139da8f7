// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"

	"github.com/hitoshi/atelier/internal/model"
)

// SessionCookieName はセッションIDを保持するCookieの名前。
const SessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// viewerContextKey はリクエストコンテキストにViewerContextを格納するためのキー。
var viewerContextKey = contextKey("viewer")

// sessionIDContextKey はリクエストコンテキストにセッションIDを格納するためのキー。
var sessionIDContextKey = contextKey("session_id")

// ViewerBuilder はセッションIDからViewerContextを構築するインターフェース。
// session.Serviceの部分集合として定義する。
type ViewerBuilder interface {
	// BuildViewer はセッションIDからViewerContextを構築する。
	// 無効なセッションは未認証の閲覧者として解決され、エラーは返さない。
	BuildViewer(ctx context.Context, sessionID string) model.ViewerContext
}

// NewViewerMiddleware はCookieからセッションを読み取り、ViewerContextを
// リクエストコンテキストに注入するミドルウェアを返す。
// セッションミドルウェアと異なり未認証でも401は返さない。ポートフォリオは
// 匿名閲覧者にも（リダクション付きで）提供されるため、認証の強制は
// RequireAuthを明示的に重ねたルートでのみ行う。
func NewViewerMiddleware(builder ViewerBuilder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				sessionID = cookie.Value
			}

			viewer := builder.BuildViewer(r.Context(), sessionID)

			ctx := context.WithValue(r.Context(), viewerContextKey, viewer)
			ctx = context.WithValue(ctx, sessionIDContextKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth は未認証リクエストに401を返すミドルウェアを返す。
// NewViewerMiddlewareの後に配置すること。
func RequireAuth() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer := ViewerFromContext(r.Context())
			if !viewer.IsAuthenticated() {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ViewerFromContext はリクエストコンテキストからViewerContextを取得する。
// ミドルウェアを通過していないコンテキストでは未認証の閲覧者を返す（フェイルクローズ）。
func ViewerFromContext(ctx context.Context) model.ViewerContext {
	viewer, ok := ctx.Value(viewerContextKey).(model.ViewerContext)
	if !ok {
		return model.Anonymous(false)
	}
	return viewer
}

// SessionIDFromContext はリクエストコンテキストからセッションIDを取得する。
// 存在しない場合は空文字列を返す。
func SessionIDFromContext(ctx context.Context) string {
	sessionID, _ := ctx.Value(sessionIDContextKey).(string)
	return sessionID
}

// ContextWithViewer はコンテキストにViewerContextを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithViewer(ctx context.Context, viewer model.ViewerContext) context.Context {
	return context.WithValue(ctx, viewerContextKey, viewer)
}

// contextWithSessionID はコンテキストにセッションIDを注入する。
func contextWithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDContextKey, sessionID)
}
