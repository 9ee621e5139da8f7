package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/atelier/internal/gate"
	"github.com/hitoshi/atelier/internal/metrics"
	"github.com/hitoshi/atelier/internal/model"
)

// GateHandler はパスワードゲートのHTTPハンドラー。
// ゲートはログインセッションとは独立しており、解錠状態は
// storageKeyごとのCookieで保持される。
type GateHandler struct {
	gate      *gate.Gate
	collector metrics.MetricsCollector
}

// NewGateHandler はGateHandlerを生成する。
func NewGateHandler(g *gate.Gate, collector metrics.MetricsCollector) *GateHandler {
	return &GateHandler{
		gate:      g,
		collector: collector,
	}
}

// --- リクエスト/レスポンス型 ---

// gateUnlockRequest はゲート解錠リクエストのボディ。
type gateUnlockRequest struct {
	Password string `json:"password"`
}

// gateStatusResponse はゲートの解錠状態レスポンス。
type gateStatusResponse struct {
	Unlocked bool `json:"unlocked"`
}

// Status はゲートの解錠状態を返す。
// GET /api/gate/{storageKey}
func (h *GateHandler) Status(w http.ResponseWriter, r *http.Request) {
	storageKey := chi.URLParam(r, "storageKey")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(gateStatusResponse{
		Unlocked: h.gate.IsUnlocked(r, storageKey),
	})
}

// Unlock はパスワードを検証してゲートを解錠する。
// POST /api/gate/{storageKey}
//
// パスワード不一致時は解錠状態を変更せず401を返す。
func (h *GateHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	storageKey := chi.URLParam(r, "storageKey")

	var req gateUnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディが不正です。",
			Category: "validation",
			Action:   "入力内容を確認してください。",
		})
		return
	}

	if !h.gate.Verify(req.Password) {
		h.collector.RecordGateAttempt(false)
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewGateLockedError())
		return
	}

	h.collector.RecordGateAttempt(true)
	h.gate.Unlock(w, storageKey)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(gateStatusResponse{Unlocked: true})
}
