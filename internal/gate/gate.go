// Package gate はディープリンクされた個別ページ用のパスワードゲートを提供する。
// 静的な共有パスワードとページごとのストレージキーによる簡易ゲートであり、
// 開示エンジン（disclosure）とはロール・エンタイトルメントの概念を共有しない
// 独立した仕組みとして扱う。
package gate

import (
	"crypto/subtle"
	"net/http"
)

// cookiePrefix は解錠状態を記憶するCookie名の接頭辞。
// ストレージキーごとに独立したCookieを発行する。
const cookiePrefix = "gate_"

// unlockedValue は解錠済みを示すCookie値。
const unlockedValue = "unlocked"

// Gate は共有パスワードによるページ単位のゲート。
type Gate struct {
	password     string
	cookieSecure bool
	cookieDomain string
	maxAge       int
}

// Config はGateの設定。
type Config struct {
	// Password は全ゲートページで共有される静的パスワード。
	Password string
	// CookieSecure はSecure属性を付与するかを示す。
	CookieSecure bool
	// CookieDomain は解錠CookieのDomain属性。
	CookieDomain string
	// MaxAge は解錠状態の有効期間（秒）。0以下はデフォルト30日。
	MaxAge int
}

// New はGateを生成する。
func New(cfg Config) *Gate {
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 30 * 24 * 60 * 60
	}
	return &Gate{
		password:     cfg.Password,
		cookieSecure: cfg.CookieSecure,
		cookieDomain: cfg.CookieDomain,
		maxAge:       maxAge,
	}
}

// Verify は入力パスワードが共有パスワードと一致するかを返す。
// タイミング攻撃を避けるため定数時間比較を行う。
// パスワードが未設定（空）のゲートは常に解錠失敗とする（フェイルクローズ）。
func (g *Gate) Verify(password string) bool {
	if g.password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(g.password), []byte(password)) == 1
}

// IsUnlocked はリクエストのCookieからstorageKeyのページが解錠済みかを返す。
func (g *Gate) IsUnlocked(r *http.Request, storageKey string) bool {
	if storageKey == "" {
		return false
	}
	cookie, err := r.Cookie(cookiePrefix + storageKey)
	if err != nil {
		return false
	}
	return cookie.Value == unlockedValue
}

// Unlock はstorageKeyのページの解錠Cookieを設定する。
// Verifyの成功後にのみ呼び出すこと。
func (g *Gate) Unlock(w http.ResponseWriter, storageKey string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookiePrefix + storageKey,
		Value:    unlockedValue,
		Path:     "/",
		Domain:   g.cookieDomain,
		MaxAge:   g.maxAge,
		HttpOnly: true,
		Secure:   g.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
