// Package model はドメインモデルを定義する。
package model

import "time"

// ContentCategory は公開コンテンツのカテゴリを表す。
// 表示の分類にのみ使用し、開示判定には影響しない。
type ContentCategory string

const (
	// CategoryConsumerProduct は自社コンシューマープロダクトの事例を示す。
	CategoryConsumerProduct ContentCategory = "consumer-product"
	// CategoryPartnershipWork はクライアントとの協業事例を示す。
	CategoryPartnershipWork ContentCategory = "partnership-work"
)

// ContentItem は開示判定の対象となるコンテンツ（ケーススタディ、
// ピッチデッキ、投資家向け資料等）を表す。
type ContentItem struct {
	// ID はスラグと独立した安定識別子。
	ID string
	// Slug はルーティングキー。一意。
	Slug string
	// Title はカード見出し。Blurred状態でも表示される。
	Title string
	// Excerpt は一覧カード用の抜粋HTML。API応答前にサニタイズされる。
	Excerpt string
	// Body は詳細ページ本文HTML。Blurred/Lockedでは応答に含めない。
	Body string
	// IsProtected は開示ルールの適用対象かを示す。
	// falseの場合は無条件に全表示となり、他のフィールドは開示判定に関与しない。
	IsProtected bool
	// Category は表示用カテゴリ。開示判定には影響しない。
	Category ContentCategory
	// OverviewRoute は認証済み閲覧者向けの「クイックオーバービュー」遷移先。
	// 空文字列は未設定を意味する。
	OverviewRoute string
	// MaterialsRoute は関連資料への遷移先。条件はOverviewRouteと同じ。
	MaterialsRoute string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AccessState は1コンテンツ・1閲覧者に対する開示状態を表す。
type AccessState string

const (
	// StateVisible は全表示（非リダクション）を示す。
	StateVisible AccessState = "visible"
	// StateBlurred はタイトルのみ表示・本文リダクションの状態を示す。
	StateBlurred AccessState = "blurred"
	// StateLocked は未認証閲覧者向けの表示状態（ハードロック）を示す。
	// 内部的にはBlurredと同一条件であり、ログインリダイレクト要否のみが異なる。
	// DisplayStateが導出する。
	StateLocked AccessState = "locked"
)

// AccessDecision は開示判定の結果。評価ごとに新しく計算し、
// 閲覧者やプレビュー設定が変わりうるためキャッシュや永続化はしない。
type AccessDecision struct {
	State AccessState
	// RequiresLoginRedirect はクリック時にログインフローへ
	// リダイレクトすべきかを示す。needsRedaction かつ未認証の場合のみtrue。
	RequiresLoginRedirect bool
	// PrimaryHref はカードクリック時の主遷移先。
	PrimaryHref string
	// OverviewHref はクイックオーバービューへのリンク。未設定の場合は空。
	OverviewHref string
	// MaterialsHref は関連資料へのリンク。未設定の場合は空。
	MaterialsHref string
	// LoginHref は復帰先付きログインURL。認証済みの場合も常に計算される（冪等）。
	LoginHref string
}

// DisplayState はレンダリング層向けの表示状態を返す。
// リダクションの根拠は単一条件のため内部状態はVisible/Blurredの2値だが、
// 未認証でログインリダイレクトを要する場合はLockedとして提示する。
func (d AccessDecision) DisplayState() AccessState {
	if d.State == StateBlurred && d.RequiresLoginRedirect {
		return StateLocked
	}
	return d.State
}
