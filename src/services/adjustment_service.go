package services

import (
	"fmt"

	"github.com/username/vendasbanco/src/database"
	"github.com/username/vendasbanco/src/logger"
	"github.com/username/vendasbanco/src/models"
	"github.com/username/vendasbanco/src/processors"
	"github.com/username/vendasbanco/src/utils"
)

type adjustmentServiceImpl struct{}

func NewAdjustmentService() AdjustmentService {
	return &adjustmentServiceImpl{}
}

// Normalize reads every transaction, canonicalizes its product name and
// writes the derived adjusted rows that do not exist yet. Idempotent: a
// second run with no new transactions writes zero rows. The whole pass
// commits in one database transaction.
func (s *adjustmentServiceImpl) Normalize() (int, error) {
	existing, err := s.existingAdjustedIDs()
	if err != nil {
		return 0, fmt.Errorf("%w: loading adjusted ids: %v", ErrPersistence, err)
	}

	rows, err := database.DB.Query(`
		SELECT external_id, product_name, buyer_name, buyer_email, amount, approved_at
		FROM transactions`)
	if err != nil {
		return 0, fmt.Errorf("%w: querying transactions: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var pending []models.AdjustedTransaction
	for rows.Next() {
		var tx models.Transaction
		var approvedMs int64
		if err := rows.Scan(&tx.ExternalID, &tx.ProductName, &tx.BuyerName, &tx.BuyerEmail, &tx.Amount, &approvedMs); err != nil {
			return 0, fmt.Errorf("%w: scanning transaction: %v", ErrPersistence, err)
		}

		if existing[tx.ExternalID] {
			logger.L.Debug("Transaction already adjusted, skipping", "externalID", tx.ExternalID)
			continue
		}

		pending = append(pending, models.AdjustedTransaction{
			ExternalID:  tx.ExternalID,
			ProductName: processors.CanonicalName(tx.ProductName),
			BuyerName:   tx.BuyerName,
			BuyerEmail:  tx.BuyerEmail,
			Amount:      tx.Amount,
			ApprovedAt:  utils.FromMillis(approvedMs),
		})
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("%w: iterating transactions: %v", ErrPersistence, err)
	}

	if len(pending) == 0 {
		logger.L.Info("Normalization pass complete, nothing to adjust")
		return 0, nil
	}

	dbTx, err := database.DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("%w: beginning adjustment transaction: %v", ErrPersistence, err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`
		INSERT INTO adjusted_transactions (external_id, product_name, buyer_name, buyer_email, amount, approved_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("%w: preparing adjustment insert: %v", ErrPersistence, err)
	}
	defer stmt.Close()

	for _, adj := range pending {
		if _, err := stmt.Exec(adj.ExternalID, adj.ProductName, adj.BuyerName, adj.BuyerEmail, adj.Amount, adj.ApprovedAt.UnixMilli()); err != nil {
			return 0, fmt.Errorf("%w: inserting adjusted transaction (externalID: %s): %v", ErrPersistence, adj.ExternalID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: committing adjusted transactions: %v", ErrPersistence, err)
	}

	logger.L.Info("Normalization pass complete", "inserted", len(pending))
	return len(pending), nil
}

func (s *adjustmentServiceImpl) existingAdjustedIDs() (map[string]bool, error) {
	rows, err := database.DB.Query("SELECT external_id FROM adjusted_transactions")
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
