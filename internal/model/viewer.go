// Package model はドメインモデルを定義する。
package model

import "time"

// ViewerRole は閲覧者のロールを表す。
// セッションが存在しない場合はRoleNoneとして扱う。
type ViewerRole string

const (
	// RoleNone は未認証の閲覧者を示す。
	RoleNone ViewerRole = "none"
	// RoleClient はクライアント企業の担当者を示す。
	RoleClient ViewerRole = "client"
	// RoleInvestor は投資家を示す。
	RoleInvestor ViewerRole = "investor"
	// RolePartner は協業パートナーを示す。
	RolePartner ViewerRole = "partner"
	// RoleTeam はスタジオのメンバーを示す。
	RoleTeam ViewerRole = "team"
	// RoleOwner はスタジオのオーナーを示す。
	RoleOwner ViewerRole = "owner"
)

// ParseViewerRole は文字列からViewerRoleを解析する。
// 不正なセッション等で未知の値が来た場合はRoleNoneを返す（フェイルクローズ）。
func ParseViewerRole(s string) ViewerRole {
	switch ViewerRole(s) {
	case RoleClient, RoleInvestor, RolePartner, RoleTeam, RoleOwner:
		return ViewerRole(s)
	default:
		return RoleNone
	}
}

// IsPrivileged はエンタイトルメント確認を省略できる特権ロールかを返す。
// investor, partner, team, owner が該当する。
func (r ViewerRole) IsPrivileged() bool {
	switch r {
	case RoleInvestor, RolePartner, RoleTeam, RoleOwner:
		return true
	default:
		return false
	}
}

// ViewerContext は「誰が見ているか」の読み取り専用スナップショット。
// リクエストごとに1回構築し、以降は変更しない。
type ViewerContext struct {
	// Role は閲覧者のロール。セッションがなければRoleNone。
	Role ViewerRole
	// ClientID はRole == RoleClientの場合のみ意味を持つクライアント識別子。
	// client ロールでClientIDが空の場合は未認証と同等に扱う（フェイルクローズ）。
	ClientID string
	// PreviewOverride は非本番ビルドで全リダクションを無効化するフラグ。
	// プロセス全体の設定値だが、判定を純粋関数に保つため
	// 環境変数からではなくコンテキスト経由で注入する。
	PreviewOverride bool
}

// IsAuthenticated はプロファイルが存在するか（Role != RoleNone）を返す。
func (v ViewerContext) IsAuthenticated() bool {
	return v.Role != RoleNone
}

// Anonymous は未認証閲覧者のViewerContextを返す。
func Anonymous(previewOverride bool) ViewerContext {
	return ViewerContext{
		Role:            RoleNone,
		PreviewOverride: previewOverride,
	}
}

// Account はログイン可能なアカウントを表す。
// クライアント担当者のほか、投資家・パートナー・スタジオメンバーも含む。
type Account struct {
	ID           string
	Email        string
	Name         string
	Role         ViewerRole
	ClientID     string // Role == RoleClientの場合のみ非空
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はアカウントのログインセッションを表す。
type Session struct {
	ID        string
	AccountID string
	ExpiresAt time.Time
	CreatedAt time.Time
}
