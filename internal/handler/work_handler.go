// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/atelier/internal/content"
	"github.com/hitoshi/atelier/internal/middleware"
	"github.com/hitoshi/atelier/internal/model"
)

// WorkServiceInterface は実績ハンドラーが必要とするサービスインターフェース。
type WorkServiceInterface interface {
	// ListWork は全コンテンツを閲覧者ごとの開示判定付きで返す。
	ListWork(ctx context.Context, viewer model.ViewerContext) ([]content.ContentCard, error)
	// GetWork はスラグで指定されたコンテンツを開示判定付きで返す。
	GetWork(ctx context.Context, viewer model.ViewerContext, slug string) (*content.ContentCard, error)
}

// WorkHandler はケーススタディ一覧・詳細のHTTPハンドラー。
type WorkHandler struct {
	service WorkServiceInterface
}

// NewWorkHandler はWorkHandlerを生成する。
func NewWorkHandler(service WorkServiceInterface) *WorkHandler {
	return &WorkHandler{service: service}
}

// --- レスポンス型 ---

// workCardResponse はコンテンツカード1枚分のレスポンス。
type workCardResponse struct {
	Slug                  string `json:"slug"`
	Title                 string `json:"title"`
	Excerpt               string `json:"excerpt"`
	Body                  string `json:"body,omitempty"` // 開示許可時のみ
	IsProtected           bool   `json:"is_protected"`
	Category              string `json:"category"`
	State                 string `json:"state"`
	RequiresLoginRedirect bool   `json:"requires_login_redirect"`
	PrimaryHref           string `json:"primary_href"`
	OverviewHref          string `json:"overview_href,omitempty"`
	MaterialsHref         string `json:"materials_href,omitempty"`
	LoginHref             string `json:"login_href"`
}

// workListResponse はコンテンツ一覧のレスポンス。
type workListResponse struct {
	Items []workCardResponse `json:"items"`
}

// ListWork は実績一覧を取得する。
// GET /api/work
func (h *WorkHandler) ListWork(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.ViewerFromContext(r.Context())

	cards, err := h.service.ListWork(r.Context(), viewer)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]workCardResponse, len(cards))
	for i, card := range cards {
		items[i] = toWorkCardResponse(card)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(workListResponse{Items: items})
}

// GetWork は実績詳細を取得する。
// GET /api/work/{slug}
func (h *WorkHandler) GetWork(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.ViewerFromContext(r.Context())
	slug := chi.URLParam(r, "slug")

	card, err := h.service.GetWork(r.Context(), viewer, slug)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toWorkCardResponse(*card))
}

// toWorkCardResponse はドメインのContentCardをAPIレスポンスに変換する。
func toWorkCardResponse(card content.ContentCard) workCardResponse {
	return workCardResponse{
		Slug:                  card.Slug,
		Title:                 card.Title,
		Excerpt:               card.Excerpt,
		Body:                  card.Body,
		IsProtected:           card.IsProtected,
		Category:              string(card.Category),
		State:                 string(card.Decision.State),
		RequiresLoginRedirect: card.Decision.RequiresLoginRedirect,
		PrimaryHref:           card.Decision.PrimaryHref,
		OverviewHref:          card.Decision.OverviewHref,
		MaterialsHref:         card.Decision.MaterialsHref,
		LoginHref:             card.Decision.LoginHref,
	}
}

// --- エラーレスポンスヘルパー ---

// apiErrorResponse はAPIエラーレスポンスの統一フォーマット。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeContentNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidRedirect:
		return http.StatusBadRequest
	case model.ErrCodeGateLocked:
		return http.StatusUnauthorized
	case model.ErrCodeAccountNotFound:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
