package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/username/vendasbanco/src/logger"
	"github.com/username/vendasbanco/src/models"
	"github.com/username/vendasbanco/src/services"
	"github.com/username/vendasbanco/src/utils"
)

type SyncHandler struct {
	syncService       services.SyncService
	adjustmentService services.AdjustmentService
}

func NewSyncHandler(syncService services.SyncService, adjustmentService services.AdjustmentService) *SyncHandler {
	return &SyncHandler{
		syncService:       syncService,
		adjustmentService: adjustmentService,
	}
}

// HandleSync triggers one fetch -> upsert -> normalize cycle. Dates come from
// form values or query parameters; empty values fall back to the configured
// defaults inside the fetcher.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.SendJSONError(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	startDate := r.FormValue("start_date")
	endDate := r.FormValue("end_date")

	logger.L.Info("Handling sync request", "startDate", startDate, "endDate", endDate)
	summary, err := h.syncService.Sync(r.Context(), startDate, endDate)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidDateFormat):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrCredential):
			utils.SendJSONError(w, fmt.Sprintf("Sync aborted: %v", err), http.StatusBadGateway)
		default:
			utils.SendJSONError(w, fmt.Sprintf("Sync failed: %v", err), http.StatusInternalServerError)
		}
		return
	}

	utils.SendJSON(w, map[string]any{"status": "ok", "summary": summary}, http.StatusOK)
}

// HandleNormalize runs the normalization engine standalone.
func (h *SyncHandler) HandleNormalize(w http.ResponseWriter, r *http.Request) {
	count, err := h.adjustmentService.Normalize()
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Normalization failed: %v", err), http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, map[string]any{
		"status":  "ok",
		"message": fmt.Sprintf("%d adjusted transactions inserted", count),
	}, http.StatusOK)
}

// HandleResetSales unconditionally deletes all ingested transactions.
func (h *SyncHandler) HandleResetSales(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.syncService.ResetSales()
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Reset failed: %v", err), http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, map[string]any{
		"status":  "ok",
		"message": fmt.Sprintf("%d transactions deleted", deleted),
	}, http.StatusOK)
}

// HandleGetRuns lists recent sync runs, newest first.
func (h *SyncHandler) HandleGetRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	runs, err := h.syncService.RecentRuns(limit)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error querying sync runs: %v", err), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []models.SyncRun{}
	}
	utils.SendJSON(w, runs, http.StatusOK)
}
