package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/username/vendasbanco/src/database"
	"github.com/username/vendasbanco/src/logger"
	"github.com/username/vendasbanco/src/models"
	"github.com/username/vendasbanco/src/processors"
	"github.com/username/vendasbanco/src/utils"
)

const ReportPageSize = 10

type reportServiceImpl struct {
	reportCache *cache.Cache
}

func NewReportService(reportCache *cache.Cache) ReportService {
	return &reportServiceImpl{reportCache: reportCache}
}

// Report filters adjusted transactions by approval date (inclusive calendar
// bounds), newest first. Totals cover the entire filtered set; only the row
// listing is paginated.
func (s *reportServiceImpl) Report(startDate, endDate string, page int) (*models.ReportResult, error) {
	var startMs, endMs *int64
	if startDate != "" {
		day, err := utils.ParseDay(startDate)
		if err != nil {
			return nil, fmt.Errorf("%w: start_date %q", ErrInvalidDateFormat, startDate)
		}
		ms := utils.StartOfDayMillis(day)
		startMs = &ms
	}
	if endDate != "" {
		day, err := utils.ParseDay(endDate)
		if err != nil {
			return nil, fmt.Errorf("%w: end_date %q", ErrInvalidDateFormat, endDate)
		}
		ms := utils.EndOfDayMillis(day)
		endMs = &ms
	}
	if page < 1 {
		page = 1
	}

	cacheKey := fmt.Sprintf("report_%s_%s_%d", startDate, endDate, page)
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Report cache hit", "key", cacheKey)
		return cached.(*models.ReportResult), nil
	}

	mentorByProduct, err := s.mentorsByProduct()
	if err != nil {
		return nil, err
	}

	// The payment method lives on the raw transaction row; join it back by
	// external id and resolve the code to its seeded description.
	query := `
		SELECT a.external_id, a.product_name, a.buyer_name, a.buyer_email, a.amount, a.approved_at,
			COALESCE(t.payment_method, ''), COALESCE(pm.description, t.payment_method, '')
		FROM adjusted_transactions a
		LEFT JOIN transactions t ON t.external_id = a.external_id
		LEFT JOIN payment_methods pm ON pm.code = t.payment_method
		WHERE 1=1`
	var args []any
	if startMs != nil {
		query += " AND a.approved_at >= ?"
		args = append(args, *startMs)
	}
	if endMs != nil {
		query += " AND a.approved_at <= ?"
		args = append(args, *endMs)
	}
	query += " ORDER BY a.approved_at DESC, a.id DESC"

	rows, err := database.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying adjusted transactions: %v", ErrPersistence, err)
	}
	defer rows.Close()

	// Seed totals with every canonical product so categories with no sales
	// in range still appear.
	totals := make(map[string]*models.ProductTotal)
	for _, name := range processors.CanonicalProducts() {
		totals[name] = &models.ProductTotal{ProductName: name, MentorName: mentorByProduct[name]}
	}

	var all []models.ReportRow
	var totalAmount float64
	for rows.Next() {
		var row models.ReportRow
		var approvedMs int64
		if err := rows.Scan(&row.ExternalID, &row.ProductName, &row.BuyerName, &row.BuyerEmail, &row.Amount, &approvedMs,
			&row.PaymentMethod, &row.PaymentMethodDescription); err != nil {
			return nil, fmt.Errorf("%w: scanning adjusted transaction: %v", ErrPersistence, err)
		}
		row.ApprovedAt = utils.FromMillis(approvedMs)
		row.MentorName = mentorByProduct[row.ProductName]
		row.AmountFormatted = utils.FormatBRL(row.Amount)

		total, ok := totals[row.ProductName]
		if !ok {
			total = &models.ProductTotal{ProductName: row.ProductName, MentorName: mentorByProduct[row.ProductName]}
			totals[row.ProductName] = total
		}
		total.Quantity++
		total.Amount += row.Amount
		totalAmount += row.Amount

		all = append(all, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating adjusted transactions: %v", ErrPersistence, err)
	}

	productTotals := make([]models.ProductTotal, 0, len(totals))
	for _, total := range totals {
		total.AmountFormatted = utils.FormatBRL(total.Amount)
		productTotals = append(productTotals, *total)
	}
	sort.Slice(productTotals, func(i, j int) bool {
		return productTotals[i].ProductName < productTotals[j].ProductName
	})

	totalPages := (len(all) + ReportPageSize - 1) / ReportPageSize
	if totalPages == 0 {
		totalPages = 1
	}
	start := (page - 1) * ReportPageSize
	end := start + ReportPageSize
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	pageRows := all[start:end]
	if pageRows == nil {
		pageRows = []models.ReportRow{}
	}

	result := &models.ReportResult{
		Rows:                 pageRows,
		Page:                 page,
		PageSize:             ReportPageSize,
		TotalPages:           totalPages,
		ProductTotals:        productTotals,
		TotalCount:           len(all),
		TotalAmount:          totalAmount,
		TotalAmountFormatted: utils.FormatBRL(totalAmount),
	}

	s.reportCache.Set(cacheKey, result, 15*time.Minute)
	return result, nil
}

func (s *reportServiceImpl) mentorsByProduct() (map[string]string, error) {
	rows, err := database.DB.Query(`
		SELECT p.name, m.name FROM products p JOIN mentors m ON m.id = p.mentor_id`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying products: %v", ErrPersistence, err)
	}
	defer rows.Close()

	byProduct := make(map[string]string)
	for rows.Next() {
		var product, mentor string
		if err := rows.Scan(&product, &mentor); err != nil {
			return nil, fmt.Errorf("%w: scanning product: %v", ErrPersistence, err)
		}
		byProduct[product] = mentor
	}
	return byProduct, rows.Err()
}
