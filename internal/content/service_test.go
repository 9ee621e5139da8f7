package content

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/atelier/internal/entitlement"
	"github.com/hitoshi/atelier/internal/metrics"
	"github.com/hitoshi/atelier/internal/model"
	"github.com/hitoshi/atelier/internal/repository"
	"github.com/hitoshi/atelier/internal/security"
)

// --- モック定義 ---

type mockContentRepo struct {
	listFunc       func(ctx context.Context) ([]*model.ContentItem, error)
	findBySlugFunc func(ctx context.Context, slug string) (*model.ContentItem, error)
}

func (m *mockContentRepo) List(ctx context.Context) ([]*model.ContentItem, error) {
	return m.listFunc(ctx)
}

func (m *mockContentRepo) FindBySlug(ctx context.Context, slug string) (*model.ContentItem, error) {
	return m.findBySlugFunc(ctx, slug)
}

var _ repository.ContentRepository = (*mockContentRepo)(nil)

type mockLoader struct {
	grants map[string][]string
}

func (m *mockLoader) ListGrants(ctx context.Context) (map[string][]string, error) {
	return m.grants, nil
}

// --- テストヘルパー ---

func newTestService(t *testing.T, repo repository.ContentRepository, grants map[string][]string) *ContentService {
	t.Helper()

	store := entitlement.NewStore(&mockLoader{grants: grants})
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("failed to load entitlements: %v", err)
	}

	collector := metrics.NewCollector(prometheus.NewRegistry())

	return NewContentService(repo, store, security.NewContentSanitizer(), collector)
}

func protectedItem() *model.ContentItem {
	return &model.ContentItem{
		ID:          "content-010",
		Slug:        "case-study-010",
		Title:       "Case Study 010",
		Excerpt:     "<p>概要テキスト</p>",
		Body:        "<p>本文テキスト</p>",
		IsProtected: true,
		Category:    model.CategoryPartnershipWork,
	}
}

// --- ListWork のテスト ---

func TestListWork_EntitledClient_BodyIncluded(t *testing.T) {
	repo := &mockContentRepo{
		listFunc: func(ctx context.Context) ([]*model.ContentItem, error) {
			return []*model.ContentItem{protectedItem()}, nil
		},
	}
	svc := newTestService(t, repo, map[string][]string{
		"creait": {"case-study-010"},
	})

	viewer := model.ViewerContext{Role: model.RoleClient, ClientID: "creait"}
	cards, err := svc.ListWork(context.Background(), viewer)
	if err != nil {
		t.Fatalf("ListWork() error = %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("cards = %d, want 1", len(cards))
	}

	card := cards[0]
	if card.Decision.State != model.StateVisible {
		t.Errorf("state = %q, want %q", card.Decision.State, model.StateVisible)
	}
	if !strings.Contains(card.Body, "本文テキスト") {
		t.Errorf("body should be included for visible content, got %q", card.Body)
	}
}

func TestListWork_UnentitledClient_BodyOmitted(t *testing.T) {
	repo := &mockContentRepo{
		listFunc: func(ctx context.Context) ([]*model.ContentItem, error) {
			return []*model.ContentItem{protectedItem()}, nil
		},
	}
	svc := newTestService(t, repo, map[string][]string{
		"athletes-first": {"case-study-020"},
	})

	viewer := model.ViewerContext{Role: model.RoleClient, ClientID: "athletes-first"}
	cards, err := svc.ListWork(context.Background(), viewer)
	if err != nil {
		t.Fatalf("ListWork() error = %v", err)
	}

	card := cards[0]
	if card.Decision.State != model.StateBlurred {
		t.Errorf("state = %q, want %q", card.Decision.State, model.StateBlurred)
	}
	if card.Decision.RequiresLoginRedirect {
		t.Error("authenticated viewer should not require login redirect")
	}
	if card.Body != "" {
		t.Errorf("body should be omitted for redacted content, got %q", card.Body)
	}
	// 抜粋はぼかし表示の下敷きとして返す
	if !strings.Contains(card.Excerpt, "概要テキスト") {
		t.Errorf("excerpt should be included, got %q", card.Excerpt)
	}
}

func TestListWork_AnonymousViewer_LoginRedirectRequired(t *testing.T) {
	repo := &mockContentRepo{
		listFunc: func(ctx context.Context) ([]*model.ContentItem, error) {
			return []*model.ContentItem{protectedItem()}, nil
		},
	}
	svc := newTestService(t, repo, nil)

	cards, err := svc.ListWork(context.Background(), model.Anonymous(false))
	if err != nil {
		t.Fatalf("ListWork() error = %v", err)
	}

	card := cards[0]
	if card.Decision.State != model.StateBlurred {
		t.Errorf("state = %q, want %q", card.Decision.State, model.StateBlurred)
	}
	if !card.Decision.RequiresLoginRedirect {
		t.Error("anonymous viewer should require login redirect")
	}
	if card.Decision.LoginHref != "/clients/login?redirect=%2Fwork%2Fcase-study-010" {
		t.Errorf("loginHref = %q", card.Decision.LoginHref)
	}
	if card.Body != "" {
		t.Error("body should be omitted for anonymous viewer")
	}
}

func TestListWork_SanitizesExcerptHTML(t *testing.T) {
	item := protectedItem()
	item.IsProtected = false
	item.Excerpt = `<p>安全な抜粋</p><script>alert("xss")</script>`
	item.Body = `<p>本文</p><iframe src="https://evil.example"></iframe>`

	repo := &mockContentRepo{
		listFunc: func(ctx context.Context) ([]*model.ContentItem, error) {
			return []*model.ContentItem{item}, nil
		},
	}
	svc := newTestService(t, repo, nil)

	cards, err := svc.ListWork(context.Background(), model.Anonymous(false))
	if err != nil {
		t.Fatalf("ListWork() error = %v", err)
	}

	card := cards[0]
	if strings.Contains(card.Excerpt, "script") {
		t.Errorf("excerpt should be sanitized, got %q", card.Excerpt)
	}
	if strings.Contains(card.Body, "iframe") {
		t.Errorf("body should be sanitized, got %q", card.Body)
	}
	if !strings.Contains(card.Excerpt, "安全な抜粋") {
		t.Errorf("safe excerpt text should remain, got %q", card.Excerpt)
	}
}

func TestListWork_RepositoryError_Propagates(t *testing.T) {
	repo := &mockContentRepo{
		listFunc: func(ctx context.Context) ([]*model.ContentItem, error) {
			return nil, errors.New("db connection lost")
		},
	}
	svc := newTestService(t, repo, nil)

	_, err := svc.ListWork(context.Background(), model.Anonymous(false))
	if err == nil {
		t.Fatal("expected error from repository failure")
	}
}

// --- GetWork のテスト ---

func TestGetWork_UnknownSlug_ReturnsContentNotFound(t *testing.T) {
	repo := &mockContentRepo{
		findBySlugFunc: func(ctx context.Context, slug string) (*model.ContentItem, error) {
			return nil, nil
		},
	}
	svc := newTestService(t, repo, nil)

	_, err := svc.GetWork(context.Background(), model.Anonymous(false), "case-study-999")
	if err == nil {
		t.Fatal("expected error for unknown slug")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeContentNotFound {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeContentNotFound)
	}
}

func TestGetWork_OwnerViewer_AlwaysVisible(t *testing.T) {
	repo := &mockContentRepo{
		findBySlugFunc: func(ctx context.Context, slug string) (*model.ContentItem, error) {
			return protectedItem(), nil
		},
	}
	svc := newTestService(t, repo, nil)

	viewer := model.ViewerContext{Role: model.RoleOwner}
	card, err := svc.GetWork(context.Background(), viewer, "case-study-010")
	if err != nil {
		t.Fatalf("GetWork() error = %v", err)
	}

	if card.Decision.State != model.StateVisible {
		t.Errorf("state = %q, want %q", card.Decision.State, model.StateVisible)
	}
	if card.Body == "" {
		t.Error("body should be included for owner")
	}
}

func TestGetWork_QuickLinksForAuthenticatedViewer(t *testing.T) {
	item := protectedItem()
	item.OverviewRoute = "/work/case-study-010/overview"
	item.MaterialsRoute = "/work/case-study-010/materials"

	repo := &mockContentRepo{
		findBySlugFunc: func(ctx context.Context, slug string) (*model.ContentItem, error) {
			return item, nil
		},
	}
	svc := newTestService(t, repo, nil)

	// 未許可の認証済みクライアントにもクイックリンクは提示される
	viewer := model.ViewerContext{Role: model.RoleClient, ClientID: "unrelated"}
	card, err := svc.GetWork(context.Background(), viewer, "case-study-010")
	if err != nil {
		t.Fatalf("GetWork() error = %v", err)
	}

	if card.Decision.State != model.StateBlurred {
		t.Errorf("state = %q, want %q", card.Decision.State, model.StateBlurred)
	}
	if card.Decision.OverviewHref != "/work/case-study-010/overview" {
		t.Errorf("overviewHref = %q", card.Decision.OverviewHref)
	}
	if card.Decision.MaterialsHref != "/work/case-study-010/materials" {
		t.Errorf("materialsHref = %q", card.Decision.MaterialsHref)
	}
}
