package links

import "strings"

// DefaultLandingPath はredirectパラメータが不正または欠落していた場合の
// 安全な着地点。外部ホストへのオープンリダイレクトは許可しない。
const DefaultLandingPath = "/clients"

// SafeRedirectPath はログイン境界のredirectパラメータを検証し、
// 安全なサイト内パスを返す。
//
// 許可されるのは "/" で始まるサイト内の絶対パスのみ。以下はすべて拒否し、
// DefaultLandingPathに差し替える。
//
//   - 空文字列・相対パス
//   - スキーム付きURL（https://evil.example 等）
//   - スキーム相対URL（//evil.example）
//   - バックスラッシュや制御文字を含むパス（ブラウザ側の正規化で
//     ホスト名として解釈されうるため）
func SafeRedirectPath(raw string) (string, bool) {
	if raw == "" {
		return DefaultLandingPath, false
	}
	if !strings.HasPrefix(raw, "/") {
		return DefaultLandingPath, false
	}
	if strings.HasPrefix(raw, "//") {
		return DefaultLandingPath, false
	}
	if strings.ContainsAny(raw, "\\\r\n\t") {
		return DefaultLandingPath, false
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < 0x20 {
			return DefaultLandingPath, false
		}
	}
	return raw, true
}
