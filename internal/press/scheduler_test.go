package press

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hitoshi/atelier/internal/model"
)

// --- モック定義 ---

type mockFetcher struct {
	mu      sync.Mutex
	fetched []string
	err     error
}

func (m *mockFetcher) Fetch(_ context.Context, source *model.PressSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetched = append(m.fetched, source.ID)
	return m.err
}

var _ PressFetcherService = (*mockFetcher)(nil)

// --- スケジューラのテスト ---

func TestScheduler_RunOnce_FetchesAllDueSources(t *testing.T) {
	sources := []*model.PressSource{
		{ID: "source-1", FeedURL: "https://a.example.com/feed"},
		{ID: "source-2", FeedURL: "https://b.example.com/feed"},
		{ID: "source-3", FeedURL: "https://c.example.com/feed"},
	}

	sourceRepo := &mockSourceRepo{
		listDueFunc: func(ctx context.Context) ([]*model.PressSource, error) {
			return sources, nil
		},
	}
	fetcher := &mockFetcher{}

	var buf bytes.Buffer
	s := NewScheduler(sourceRepo, fetcher, newTestLogger(&buf), 2)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	if len(fetcher.fetched) != 3 {
		t.Errorf("fetched sources = %d, want 3", len(fetcher.fetched))
	}
}

func TestScheduler_RunOnce_NoDueSources_ReturnsNil(t *testing.T) {
	sourceRepo := &mockSourceRepo{
		listDueFunc: func(ctx context.Context) ([]*model.PressSource, error) {
			return nil, nil
		},
	}
	fetcher := &mockFetcher{}

	var buf bytes.Buffer
	s := NewScheduler(sourceRepo, fetcher, newTestLogger(&buf), 5)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if len(fetcher.fetched) != 0 {
		t.Errorf("fetched sources = %d, want 0", len(fetcher.fetched))
	}
}

func TestScheduler_RunOnce_ListError_Propagates(t *testing.T) {
	sourceRepo := &mockSourceRepo{
		listDueFunc: func(ctx context.Context) ([]*model.PressSource, error) {
			return nil, errors.New("db error")
		},
	}

	var buf bytes.Buffer
	s := NewScheduler(sourceRepo, &mockFetcher{}, newTestLogger(&buf), 5)

	if err := s.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error from repository failure")
	}
}

func TestScheduler_RunOnce_FetchErrorsDoNotAbortCycle(t *testing.T) {
	sources := []*model.PressSource{
		{ID: "source-1"},
		{ID: "source-2"},
	}

	sourceRepo := &mockSourceRepo{
		listDueFunc: func(ctx context.Context) ([]*model.PressSource, error) {
			return sources, nil
		},
	}
	fetcher := &mockFetcher{err: errors.New("fetch failed")}

	var buf bytes.Buffer
	s := NewScheduler(sourceRepo, fetcher, newTestLogger(&buf), 5)

	// 個別ソースのフェッチ失敗はサイクル全体を失敗させない
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if len(fetcher.fetched) != 2 {
		t.Errorf("fetched sources = %d, want 2", len(fetcher.fetched))
	}
}

func TestNewScheduler_DefaultsConcurrency(t *testing.T) {
	var buf bytes.Buffer
	s := NewScheduler(&mockSourceRepo{}, &mockFetcher{}, newTestLogger(&buf), 0)

	if s.maxConcurrency != 5 {
		t.Errorf("maxConcurrency = %d, want 5", s.maxConcurrency)
	}
}
