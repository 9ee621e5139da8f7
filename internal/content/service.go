// Package content はケーススタディの取得と開示判定の合成を提供する。
package content

import (
	"context"
	"fmt"

	"github.com/hitoshi/atelier/internal/disclosure"
	"github.com/hitoshi/atelier/internal/entitlement"
	"github.com/hitoshi/atelier/internal/links"
	"github.com/hitoshi/atelier/internal/metrics"
	"github.com/hitoshi/atelier/internal/model"
	"github.com/hitoshi/atelier/internal/repository"
	"github.com/hitoshi/atelier/internal/security"
)

// ContentCard はAPI応答1件分のコンテンツカード。
// 開示判定の結果に応じて本文は省略される。
type ContentCard struct {
	Slug        string
	Title       string
	Excerpt     string
	Body        string // 開示が許可された場合のみ設定される
	IsProtected bool
	Category    model.ContentCategory
	Decision    model.AccessDecision
}

// ContentService はコンテンツ取得・開示判定・リンク導出を合成するサービス。
type ContentService struct {
	contentRepo  repository.ContentRepository
	entitlements *entitlement.Store
	sanitizer    security.ContentSanitizerService
	collector    metrics.MetricsCollector
}

// NewContentService はContentServiceの新しいインスタンスを生成する。
func NewContentService(
	contentRepo repository.ContentRepository,
	entitlements *entitlement.Store,
	sanitizer security.ContentSanitizerService,
	collector metrics.MetricsCollector,
) *ContentService {
	return &ContentService{
		contentRepo:  contentRepo,
		entitlements: entitlements,
		sanitizer:    sanitizer,
		collector:    collector,
	}
}

// ListWork は全コンテンツを閲覧者ごとの開示判定付きで返す。
// リダクション対象のカードは本文を含まない。
func (s *ContentService) ListWork(ctx context.Context, viewer model.ViewerContext) ([]ContentCard, error) {
	items, err := s.contentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("コンテンツ一覧の取得に失敗: %w", err)
	}

	cards := make([]ContentCard, len(items))
	for i, item := range items {
		cards[i] = s.buildCard(viewer, item)
	}

	return cards, nil
}

// GetWork はスラグで指定されたコンテンツを開示判定付きで返す。
// 存在しないスラグにはCONTENT_NOT_FOUNDエラーを返す。
func (s *ContentService) GetWork(ctx context.Context, viewer model.ViewerContext, slug string) (*ContentCard, error) {
	item, err := s.contentRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("コンテンツの取得に失敗: %w", err)
	}
	if item == nil {
		return nil, model.NewContentNotFoundError(slug)
	}

	card := s.buildCard(viewer, item)
	return &card, nil
}

// buildCard は開示判定とリンク導出を合成してカードを組み立てる。
func (s *ContentService) buildCard(viewer model.ViewerContext, item *model.ContentItem) ContentCard {
	// 1. 開示判定（純粋関数）
	state, requiresRedirect := disclosure.Resolve(viewer, *item, s.entitlements.Current())

	// 2. 遷移先URLの導出（判定結果を変更しない）
	l := links.Resolve(viewer, *item)

	decision := model.AccessDecision{
		State:                 state,
		RequiresLoginRedirect: requiresRedirect,
		PrimaryHref:           l.PrimaryHref,
		OverviewHref:          l.OverviewHref,
		MaterialsHref:         l.MaterialsHref,
		LoginHref:             l.LoginHref,
	}

	s.collector.RecordDisclosureDecision(string(decision.DisplayState()))

	card := ContentCard{
		Slug:        item.Slug,
		Title:       item.Title,
		Excerpt:     s.sanitizer.Sanitize(item.Excerpt),
		IsProtected: item.IsProtected,
		Category:    item.Category,
		Decision:    decision,
	}

	// 3. 本文は開示が許可された場合のみ応答に含める。
	// リダクション対象のカードに本文を載せるとAPIレスポンス自体が
	// 情報漏えい経路になるため、ぼかし表示でも本文は返さない。
	if state == model.StateVisible {
		card.Body = s.sanitizer.Sanitize(item.Body)
	}

	return card
}
