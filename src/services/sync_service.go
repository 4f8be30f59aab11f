package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/username/vendasbanco/src/database"
	"github.com/username/vendasbanco/src/hotmart"
	"github.com/username/vendasbanco/src/logger"
	"github.com/username/vendasbanco/src/models"
	"github.com/username/vendasbanco/src/security/validation"
	"github.com/username/vendasbanco/src/utils"
)

const (
	defaultProductName = "Outro"
	defaultBuyerPhone  = "N/A"
)

type syncServiceImpl struct {
	client      *hotmart.Client
	adjuster    AdjustmentService
	emailer     EmailService
	reportCache *cache.Cache
}

func NewSyncService(client *hotmart.Client, adjuster AdjustmentService, emailer EmailService, reportCache *cache.Cache) SyncService {
	return &syncServiceImpl{
		client:      client,
		adjuster:    adjuster,
		emailer:     emailer,
		reportCache: reportCache,
	}
}

// Sync runs one fetch -> upsert -> normalize cycle. Each cycle is recorded in
// sync_runs under a fresh run id so failures can be diagnosed later.
func (s *syncServiceImpl) Sync(ctx context.Context, startDate, endDate string) (*SyncSummary, error) {
	runID := uuid.NewString()
	startedAt := time.Now()
	logger.L.Info("Sync START", "runID", runID, "startDate", startDate, "endDate", endDate)

	summary := &SyncSummary{RunID: runID}
	s.recordRunStart(runID, startDate, endDate, startedAt)

	sales, err := s.client.FetchSalesHistory(ctx, startDate, endDate)
	if err != nil {
		if errors.Is(err, hotmart.ErrInvalidDate) {
			err = fmt.Errorf("%w: %v", ErrInvalidDateFormat, err)
		} else {
			err = fmt.Errorf("%w: %v", ErrCredential, err)
		}
		return s.failRun(summary, err)
	}
	summary.Fetched = len(sales)
	logger.L.Info("Sales fetched from upstream", "runID", runID, "records", len(sales))

	inserted, dups, invalid, err := s.upsertSales(sales)
	summary.Inserted = inserted
	summary.SkippedDuplicates = dups
	summary.SkippedInvalid = invalid
	if err != nil {
		return s.failRun(summary, err)
	}

	adjusted, err := s.adjuster.Normalize()
	summary.Adjusted = adjusted
	if err != nil {
		return s.failRun(summary, err)
	}

	summary.Message = fmt.Sprintf("sync complete: %d fetched, %d inserted, %d adjusted", summary.Fetched, inserted, adjusted)
	s.recordRunFinish(summary, "ok", summary.Message)
	s.reportCache.Flush()
	logger.L.Info("Sync END", "runID", runID, "duration", time.Since(startedAt), "inserted", inserted, "adjusted", adjusted)
	return summary, nil
}

// upsertSales maps the raw records into transaction rows and inserts the new
// ones in a single database transaction. Per-record skips (missing external
// id, duplicates, malformed fields) happen before the transaction boundary
// and never abort the batch.
func (s *syncServiceImpl) upsertSales(sales []hotmart.SaleItem) (inserted, duplicates, invalid int, err error) {
	existing, err := s.existingExternalIDs()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: loading existing external ids: %v", ErrPersistence, err)
	}

	var pending []models.Transaction
	for _, sale := range sales {
		externalID := sale.Purchase.Transaction
		if externalID == "" {
			// Malformed upstream data, nothing to key on.
			continue
		}
		if existing[externalID] {
			logger.L.Info("Transaction already ingested, skipping", "externalID", externalID)
			duplicates++
			continue
		}

		tx, buildErr := buildTransaction(sale)
		if buildErr != nil {
			logger.L.Error("Skipping malformed sale record", "externalID", externalID, "error", buildErr)
			invalid++
			continue
		}

		existing[externalID] = true
		pending = append(pending, tx)
	}

	if len(pending) == 0 {
		return 0, duplicates, invalid, nil
	}

	dbTx, err := database.DB.Begin()
	if err != nil {
		return 0, duplicates, invalid, fmt.Errorf("%w: beginning transaction: %v", ErrPersistence, err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`
		INSERT INTO transactions (external_id, product_name, buyer_name, buyer_phone, buyer_email, amount, approved_at, status, payment_method)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, duplicates, invalid, fmt.Errorf("%w: preparing insert statement: %v", ErrPersistence, err)
	}
	defer stmt.Close()

	for _, tx := range pending {
		_, execErr := stmt.Exec(tx.ExternalID, tx.ProductName, tx.BuyerName, tx.BuyerPhone, tx.BuyerEmail,
			tx.Amount, tx.ApprovedAt.UnixMilli(), tx.Status, tx.PaymentMethod)
		if execErr != nil {
			if strings.Contains(strings.ToLower(execErr.Error()), "unique constraint failed") {
				// Raced with an earlier ingest of the same sale; already ingested, not an error.
				logger.L.Debug("Skipping duplicate transaction on insert", "externalID", tx.ExternalID)
				duplicates++
				continue
			}
			return 0, duplicates, invalid, fmt.Errorf("%w: inserting transaction (externalID: %s): %v", ErrPersistence, tx.ExternalID, execErr)
		}
		inserted++
	}

	if err := dbTx.Commit(); err != nil {
		return 0, duplicates, invalid, fmt.Errorf("%w: committing transactions: %v", ErrPersistence, err)
	}
	return inserted, duplicates, invalid, nil
}

// buildTransaction validates one raw sale and maps it to a transaction row.
// Missing product name and phone get sentinels; any other missing field is a
// per-record failure.
func buildTransaction(sale hotmart.SaleItem) (models.Transaction, error) {
	var tx models.Transaction

	tx.ExternalID = sale.Purchase.Transaction

	tx.ProductName = validation.CleanField(sale.Product.Name)
	if tx.ProductName == "" {
		tx.ProductName = defaultProductName
	}

	tx.BuyerName = validation.CleanField(sale.Buyer.Name)
	if tx.BuyerName == "" {
		return tx, errors.New("missing buyer name")
	}
	tx.BuyerEmail = validation.CleanField(sale.Buyer.Email)
	if tx.BuyerEmail == "" {
		return tx, errors.New("missing buyer email")
	}
	tx.BuyerPhone = validation.CleanField(sale.Buyer.Phone)
	if tx.BuyerPhone == "" {
		tx.BuyerPhone = defaultBuyerPhone
	}

	if sale.Purchase.Price == nil || sale.Purchase.Price.Value == nil {
		return tx, errors.New("missing purchase price")
	}
	tx.Amount = *sale.Purchase.Price.Value

	if sale.Purchase.ApprovedDate == nil {
		return tx, errors.New("missing approval date")
	}
	tx.ApprovedAt = utils.FromMillis(*sale.Purchase.ApprovedDate)

	tx.Status = sale.Purchase.Status
	if tx.Status == "" {
		return tx, errors.New("missing purchase status")
	}

	if sale.Purchase.Payment == nil || sale.Purchase.Payment.Method == "" {
		return tx, errors.New("missing payment method")
	}
	tx.PaymentMethod = sale.Purchase.Payment.Method

	return tx, nil
}

// ResetSales deletes all ingested transactions. Adjusted rows are preserved.
func (s *syncServiceImpl) ResetSales() (int64, error) {
	res, err := database.DB.Exec("DELETE FROM transactions")
	if err != nil {
		return 0, fmt.Errorf("%w: deleting transactions: %v", ErrPersistence, err)
	}
	deleted, _ := res.RowsAffected()
	s.reportCache.Flush()
	logger.L.Info("All transactions deleted", "rows", deleted)
	return deleted, nil
}

func (s *syncServiceImpl) RecentRuns(limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := database.DB.Query(`
		SELECT id, run_id, start_date, end_date, fetched, inserted, adjusted, status, COALESCE(message, ''), started_at, finished_at
		FROM sync_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: querying sync runs: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var runs []models.SyncRun
	for rows.Next() {
		var run models.SyncRun
		var startedMs int64
		var finishedMs *int64
		if err := rows.Scan(&run.ID, &run.RunID, &run.StartDate, &run.EndDate, &run.Fetched, &run.Inserted,
			&run.Adjusted, &run.Status, &run.Message, &startedMs, &finishedMs); err != nil {
			return nil, fmt.Errorf("%w: scanning sync run: %v", ErrPersistence, err)
		}
		run.StartedAt = utils.FromMillis(startedMs)
		if finishedMs != nil {
			t := utils.FromMillis(*finishedMs)
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *syncServiceImpl) existingExternalIDs() (map[string]bool, error) {
	rows, err := database.DB.Query("SELECT external_id FROM transactions")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func (s *syncServiceImpl) recordRunStart(runID, startDate, endDate string, startedAt time.Time) {
	_, err := database.DB.Exec(`
		INSERT INTO sync_runs (run_id, start_date, end_date, status, started_at)
		VALUES (?, ?, ?, 'running', ?)`, runID, startDate, endDate, startedAt.UnixMilli())
	if err != nil {
		// Run bookkeeping never blocks the sync itself.
		logger.L.Error("Failed to record sync run start", "runID", runID, "error", err)
	}
}

func (s *syncServiceImpl) recordRunFinish(summary *SyncSummary, status, message string) {
	_, err := database.DB.Exec(`
		UPDATE sync_runs SET fetched = ?, inserted = ?, adjusted = ?, status = ?, message = ?, finished_at = ?
		WHERE run_id = ?`,
		summary.Fetched, summary.Inserted, summary.Adjusted, status, message, time.Now().UnixMilli(), summary.RunID)
	if err != nil {
		logger.L.Error("Failed to record sync run finish", "runID", summary.RunID, "error", err)
	}
}

func (s *syncServiceImpl) failRun(summary *SyncSummary, err error) (*SyncSummary, error) {
	summary.Message = err.Error()
	s.recordRunFinish(summary, "error", err.Error())
	logger.L.Error("Sync failed", "runID", summary.RunID, "error", err)
	if !errors.Is(err, ErrInvalidDateFormat) && s.emailer != nil {
		if alertErr := s.emailer.SendSyncFailureAlert(summary.RunID, err.Error()); alertErr != nil {
			logger.L.Error("Failed to send sync failure alert", "runID", summary.RunID, "error", alertErr)
		}
	}
	return summary, err
}
