// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, content, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeContentNotFound    = "CONTENT_NOT_FOUND"
	ErrCodeInvalidRedirect    = "INVALID_REDIRECT"
	ErrCodeGateLocked         = "GATE_LOCKED"
	ErrCodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
)

// NewUnauthorizedError は認証が必要なことを示すエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// アカウントの存在有無を区別しない単一のメッセージを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewContentNotFoundError はコンテンツ未検出エラーを生成する。
func NewContentNotFoundError(slug string) *APIError {
	return &APIError{
		Code:     ErrCodeContentNotFound,
		Message:  fmt.Sprintf("指定されたコンテンツが見つかりません: %s", slug),
		Category: "content",
		Action:   "URLを確認してください。",
	}
}

// NewInvalidRedirectError は不正なリダイレクト先エラーを生成する。
// オープンリダイレクトはセキュリティ欠陥として扱い、遷移先は安全な既定値に差し替える。
func NewInvalidRedirectError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRedirect,
		Message:  "リダイレクト先が不正です。",
		Category: "validation",
		Action:   "サイト内のページから再度ログインしてください。",
	}
}

// NewGateLockedError はパスワードゲートの解錠失敗エラーを生成する。
func NewGateLockedError() *APIError {
	return &APIError{
		Code:     ErrCodeGateLocked,
		Message:  "パスワードが正しくありません。",
		Category: "auth",
		Action:   "共有されたパスワードを確認してください。",
	}
}

// NewAccountNotFoundError はアカウントが見つからない場合のエラーを生成する。
func NewAccountNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountNotFound,
		Message:  "アカウントが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
