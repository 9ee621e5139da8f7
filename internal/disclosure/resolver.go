// Package disclosure は機密コンテンツの開示判定を提供する。
// 1コンテンツ・1閲覧者ごとに「全表示 / ぼかし / ロック」を決定する
// 純粋関数であり、入出力以外の状態を一切持たない。
package disclosure

import "github.com/hitoshi/atelier/internal/model"

// EntitlementChecker はエンタイトルメント照会のインターフェース。
// entitlement.Mapの部分集合として定義する。
type EntitlementChecker interface {
	// IsEntitled はclientIDがslugの閲覧を許可されているかを返す。
	// 未知の入力に対してはfalseを返し、エラーやpanicを起こしてはならない。
	IsEntitled(clientID, slug string) bool
}

// Resolve は閲覧者・コンテンツ・エンタイトルメント対応表から開示状態を判定する。
//
// ルールは以下の順で評価され、最初に一致したものが勝つ。この順序は正しさに関わる。
//
//  1. 非保護アイテムは無条件に全表示
//  2. 特権ロール（investor/partner/team/owner）は全表示
//  3. エンタイトルメントを持つクライアントは全表示
//  4. プレビューオーバーライド有効時は全表示
//  5. それ以外はリダクション: 状態はBlurredとなり、未認証の場合のみ
//     ログインリダイレクトが必要となる（ハードロック）。認証済みで
//     エンタイトルメントがない場合はリダイレクトしないソフトロック。
//
// リダクション要否という単一のブール値が視覚状態とクリック挙動の両方を
// 駆動するため、「ロックに見えるがロックされていない」という乖離は起きない。
// エラーは返さない。判定できない入力はすべてリダクション側に倒す（フェイルクローズ）。
func Resolve(viewer model.ViewerContext, item model.ContentItem, entitlements EntitlementChecker) (model.AccessState, bool) {
	// 非保護アイテムには開示ルール自体が適用されない
	if !item.IsProtected {
		return model.StateVisible, false
	}

	isPrivileged := viewer.Role.IsPrivileged()

	// clientロールでClientIDが空の場合は未認証と同等に扱う
	isEntitledClient := viewer.Role == model.RoleClient &&
		viewer.ClientID != "" &&
		entitlements != nil &&
		entitlements.IsEntitled(viewer.ClientID, item.Slug)

	needsRedaction := !viewer.PreviewOverride && !isPrivileged && !isEntitledClient
	if !needsRedaction {
		return model.StateVisible, false
	}

	// 認証済みだがエンタイトルメントなし: タイトルのみ表示のソフトロック。
	// クリックでのリダイレクトは行わず、UIは問い合わせ導線を提示する。
	// 未認証の場合のみログインリダイレクトを要求する（ハードロック）。
	return model.StateBlurred, !viewer.IsAuthenticated()
}
