package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/atelier/internal/model"
)

// --- モック定義 ---

type mockPressService struct {
	listRecentFunc func(ctx context.Context, limit int) ([]*model.PressMention, error)
}

func (m *mockPressService) ListRecent(ctx context.Context, limit int) ([]*model.PressMention, error) {
	return m.listRecentFunc(ctx, limit)
}

var _ PressServiceInterface = (*mockPressService)(nil)

// --- テスト ---

func TestPressHandler_ListMentions(t *testing.T) {
	published := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	var capturedLimit int
	svc := &mockPressService{
		listRecentFunc: func(ctx context.Context, limit int) ([]*model.PressMention, error) {
			capturedLimit = limit
			return []*model.PressMention{
				{
					ID:          "mention-1",
					Title:       "Atelier、グッドデザイン賞を受賞",
					Link:        "https://press.example.com/articles/1",
					Summary:     "<p>受賞記事の要約</p>",
					ImageURL:    "https://press.example.com/images/1.jpg",
					PublishedAt: published,
				},
			}, nil
		},
	}
	h := NewPressHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/press?limit=5", nil)
	w := httptest.NewRecorder()

	h.ListMentions(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if capturedLimit != 5 {
		t.Errorf("limit = %d, want 5", capturedLimit)
	}

	var resp pressListResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(resp.Items))
	}
	if resp.Items[0].Link != "https://press.example.com/articles/1" {
		t.Errorf("link = %q", resp.Items[0].Link)
	}
	if !resp.Items[0].PublishedAt.Equal(published) {
		t.Errorf("published_at = %v", resp.Items[0].PublishedAt)
	}
}

func TestPressHandler_ListMentions_NoLimitParam(t *testing.T) {
	var capturedLimit int
	svc := &mockPressService{
		listRecentFunc: func(ctx context.Context, limit int) ([]*model.PressMention, error) {
			capturedLimit = limit
			return nil, nil
		},
	}
	h := NewPressHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/press", nil)
	w := httptest.NewRecorder()

	h.ListMentions(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	// limit未指定時は0を渡し、サービス側のデフォルトに委ねる
	if capturedLimit != 0 {
		t.Errorf("limit = %d, want 0", capturedLimit)
	}
}

func TestPressHandler_ListMentions_InvalidLimit_Returns400(t *testing.T) {
	svc := &mockPressService{
		listRecentFunc: func(ctx context.Context, limit int) ([]*model.PressMention, error) {
			t.Error("ListRecent should not be called for invalid limit")
			return nil, nil
		},
	}
	h := NewPressHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/press?limit=abc", nil)
	w := httptest.NewRecorder()

	h.ListMentions(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}

	var errResp apiErrorResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&errResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if errResp.Code != "INVALID_REQUEST" {
		t.Errorf("code = %q, want %q", errResp.Code, "INVALID_REQUEST")
	}
}

func TestPressHandler_ListMentions_ServiceError_Returns500(t *testing.T) {
	svc := &mockPressService{
		listRecentFunc: func(ctx context.Context, limit int) ([]*model.PressMention, error) {
			return nil, errors.New("db connection lost")
		},
	}
	h := NewPressHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/press", nil)
	w := httptest.NewRecorder()

	h.ListMentions(w, req)

	if w.Result().StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusInternalServerError)
	}
}
