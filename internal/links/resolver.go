// Package links は開示判定結果からコンテンツカードの遷移先URLを導出する。
// 副作用のない純粋な導出であり、判定済みのリダイレクト要否を変更することはない。
package links

import (
	"net/url"

	"github.com/hitoshi/atelier/internal/model"
)

const (
	// workRoutePrefix はケーススタディの正規ルートの接頭辞。
	workRoutePrefix = "/work/"
	// loginRoute はクライアントログインのルート。
	loginRoute = "/clients/login"
)

// Links はカード1枚分の遷移先URL一式。
type Links struct {
	PrimaryHref   string
	OverviewHref  string
	MaterialsHref string
	LoginHref     string
}

// CanonicalRoute はスラグに対する正規ルート /work/{slug} を返す。
func CanonicalRoute(slug string) string {
	return workRoutePrefix + url.PathEscape(slug)
}

// Resolve は閲覧者とコンテンツから遷移先URL一式を導出する。
//
//   - PrimaryHref: 認証済みかつOverviewRouteが設定されていればそちらを、
//     それ以外は正規ルート /work/{slug} を使う。
//   - OverviewHref / MaterialsHref: 認証済みかつ対応ルートが設定されている
//     場合のみ。エンタイトルメントの有無は参照しない。認証済みだが
//     未許可の閲覧者にもリンク自体は提示される（問い合わせへの導線という
//     元の挙動を意図的に維持している。resolver_test.goで固定）。
//   - LoginHref: 復帰先（OverviewHrefがあればそれ、なければPrimaryHref）を
//     パーセントエンコードして付与したログインURL。認証済みでも常に
//     計算可能で、同一入力に対して常に同一の文字列を返す（冪等）。
func Resolve(viewer model.ViewerContext, item model.ContentItem) Links {
	l := Links{
		PrimaryHref: CanonicalRoute(item.Slug),
	}

	if viewer.IsAuthenticated() {
		if item.OverviewRoute != "" {
			l.PrimaryHref = item.OverviewRoute
			l.OverviewHref = item.OverviewRoute
		}
		if item.MaterialsRoute != "" {
			l.MaterialsHref = item.MaterialsRoute
		}
	}

	l.LoginHref = LoginURL(destinationOf(l))
	return l
}

// LoginURL は復帰先付きのログインURLを組み立てる。
// destはサイト内の絶対パスを想定し、QueryEscapeで安定的にエンコードする。
func LoginURL(dest string) string {
	return loginRoute + "?redirect=" + url.QueryEscape(dest)
}

// destinationOf は閲覧者がログイン後に戻るべき遷移先を返す。
func destinationOf(l Links) string {
	if l.OverviewHref != "" {
		return l.OverviewHref
	}
	return l.PrimaryHref
}
