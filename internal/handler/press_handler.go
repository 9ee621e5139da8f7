package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/atelier/internal/model"
)

// PressServiceInterface は掲載実績ハンドラーが必要とするサービスインターフェース。
type PressServiceInterface interface {
	// ListRecent は掲載記事をpublished_at降順で取得する。
	ListRecent(ctx context.Context, limit int) ([]*model.PressMention, error)
}

// PressHandler は掲載実績のHTTPハンドラー。
type PressHandler struct {
	service PressServiceInterface
}

// NewPressHandler はPressHandlerを生成する。
func NewPressHandler(service PressServiceInterface) *PressHandler {
	return &PressHandler{service: service}
}

// --- レスポンス型 ---

// pressMentionResponse は掲載記事1件分のレスポンス。
type pressMentionResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Summary     string    `json:"summary"` // サニタイズ済みHTML
	ImageURL    string    `json:"image_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// pressListResponse は掲載記事一覧のレスポンス。
type pressListResponse struct {
	Items []pressMentionResponse `json:"items"`
}

// ListMentions は掲載実績一覧を取得する。
// GET /api/press?limit=20
func (h *PressHandler) ListMentions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
				Code:     "INVALID_REQUEST",
				Message:  "limitパラメータが不正です。",
				Category: "validation",
				Action:   "数値を指定してください。",
			})
			return
		}
		limit = parsed
	}

	mentions, err := h.service.ListRecent(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]pressMentionResponse, len(mentions))
	for i, m := range mentions {
		items[i] = pressMentionResponse{
			ID:          m.ID,
			Title:       m.Title,
			Link:        m.Link,
			Summary:     m.Summary,
			ImageURL:    m.ImageURL,
			PublishedAt: m.PublishedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pressListResponse{Items: items})
}
