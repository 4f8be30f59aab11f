package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/username/vendasbanco/src/services"
	"github.com/username/vendasbanco/src/utils"
)

type ReportHandler struct {
	reportService services.ReportService
}

func NewReportHandler(reportService services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// HandleGetReport serves the paginated reporting view over adjusted
// transactions. Malformed date filters abort with a validation error.
func (h *ReportHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 1
	if pageStr := q.Get("page"); pageStr != "" {
		parsed, err := strconv.Atoi(pageStr)
		if err != nil || parsed < 1 {
			utils.SendJSONError(w, fmt.Sprintf("Invalid page %q", pageStr), http.StatusBadRequest)
			return
		}
		page = parsed
	}

	result, err := h.reportService.Report(q.Get("start_date"), q.Get("end_date"), page)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDateFormat) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		utils.SendJSONError(w, fmt.Sprintf("Error building report: %v", err), http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, result, http.StatusOK)
}
