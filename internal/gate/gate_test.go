package gate

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestGate() *Gate {
	return New(Config{Password: "studio-pass", CookieSecure: false})
}

// 正しいパスワードのみ解錠できる
func TestVerify_MatchesSharedPassword(t *testing.T) {
	g := newTestGate()

	if !g.Verify("studio-pass") {
		t.Error("correct password must verify")
	}
	if g.Verify("wrong") {
		t.Error("wrong password must not verify")
	}
	if g.Verify("") {
		t.Error("empty password must not verify")
	}
}

// パスワード未設定のゲートは常に解錠失敗（フェイルクローズ）
func TestVerify_EmptyConfiguredPassword_FailClosed(t *testing.T) {
	g := New(Config{Password: ""})

	if g.Verify("") {
		t.Error("gate without a configured password must never unlock")
	}
	if g.Verify("anything") {
		t.Error("gate without a configured password must never unlock")
	}
}

// 解錠Cookieはストレージキーごとに独立している
func TestUnlock_PerStorageKey(t *testing.T) {
	g := newTestGate()

	rec := httptest.NewRecorder()
	g.Unlock(rec, "pitch-deck-2026")

	req := httptest.NewRequest(http.MethodGet, "/decks/pitch", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}

	if !g.IsUnlocked(req, "pitch-deck-2026") {
		t.Error("unlocked storage key must report unlocked")
	}
	if g.IsUnlocked(req, "another-page") {
		t.Error("unlock must not leak across storage keys")
	}
}

// Cookieのないリクエストは未解錠
func TestIsUnlocked_NoCookie(t *testing.T) {
	g := newTestGate()
	req := httptest.NewRequest(http.MethodGet, "/decks/pitch", nil)

	if g.IsUnlocked(req, "pitch-deck-2026") {
		t.Error("request without cookie must be locked")
	}
	if g.IsUnlocked(req, "") {
		t.Error("empty storage key must be locked")
	}
}

// 解錠CookieはHttpOnlyで発行される
func TestUnlock_CookieAttributes(t *testing.T) {
	g := newTestGate()

	rec := httptest.NewRecorder()
	g.Unlock(rec, "pitch-deck-2026")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "gate_pitch-deck-2026" {
		t.Errorf("unexpected cookie name: %s", c.Name)
	}
	if !c.HttpOnly {
		t.Error("unlock cookie must be HttpOnly")
	}
	if c.MaxAge <= 0 {
		t.Error("unlock cookie must have a positive max age")
	}
}
