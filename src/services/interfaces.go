package services

import (
	"context"

	"github.com/username/vendasbanco/src/models"
)

// SyncSummary reports the outcome of one sync cycle.
type SyncSummary struct {
	RunID             string `json:"run_id"`
	Fetched           int    `json:"fetched"`
	Inserted          int    `json:"inserted"`
	SkippedDuplicates int    `json:"skipped_duplicates"`
	SkippedInvalid    int    `json:"skipped_invalid"`
	Adjusted          int    `json:"adjusted"`
	Message           string `json:"message"`
}

// SyncService drives the fetch -> upsert -> normalize pipeline.
type SyncService interface {
	Sync(ctx context.Context, startDate, endDate string) (*SyncSummary, error)
	ResetSales() (int64, error)
	RecentRuns(limit int) ([]models.SyncRun, error)
}

// AdjustmentService owns the derived adjusted-transactions dataset. It is the
// only writer of that table.
type AdjustmentService interface {
	Normalize() (int, error)
}

// ReportService produces the paginated, filterable reporting view.
type ReportService interface {
	Report(startDate, endDate string, page int) (*models.ReportResult, error)
}

// EmailService sends operational alerts.
type EmailService interface {
	SendSyncFailureAlert(runID, reason string) error
}
