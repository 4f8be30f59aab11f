package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/vendasbanco/src/database"
	"github.com/username/vendasbanco/src/models"
)

func newTestReportService() ReportService {
	return NewReportService(cache.New(time.Minute, time.Minute))
}

func productTotal(t *testing.T, result *models.ReportResult, productName string) models.ProductTotal {
	t.Helper()
	for _, total := range result.ProductTotals {
		if total.ProductName == productName {
			return total
		}
	}
	t.Fatalf("product %q not found in totals", productName)
	return models.ProductTotal{}
}

func TestReportTotals(t *testing.T) {
	setupTestDB(t)
	svc := newTestReportService()

	jan := mustParseDayMillis(t, "2024-01-15")
	feb := mustParseDayMillis(t, "2024-02-15")
	insertAdjusted(t, "TX-1", "LS Club", 100, jan)
	insertAdjusted(t, "TX-2", "LS Club", 50, jan)
	insertAdjusted(t, "TX-3", "Evolution Online", 200, feb)

	result, err := svc.Report("", "", 1)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalCount)
	assert.Equal(t, 350.0, result.TotalAmount)
	assert.Equal(t, "R$ 350,00", result.TotalAmountFormatted)

	lsClub := productTotal(t, result, "LS Club")
	assert.Equal(t, 2, lsClub.Quantity)
	assert.Equal(t, 150.0, lsClub.Amount)
	assert.Equal(t, "R$ 150,00", lsClub.AmountFormatted)

	t.Run("grand total equals sum of per-product totals", func(t *testing.T) {
		var sum float64
		var count int
		for _, total := range result.ProductTotals {
			sum += total.Amount
			count += total.Quantity
		}
		assert.Equal(t, result.TotalAmount, sum)
		assert.Equal(t, result.TotalCount, count)
	})

	t.Run("categories without sales still appear with zero totals", func(t *testing.T) {
		mi := productTotal(t, result, "MI Liderança")
		assert.Equal(t, 0, mi.Quantity)
		assert.Equal(t, 0.0, mi.Amount)
	})
}

func TestReportDateFilter(t *testing.T) {
	setupTestDB(t)
	svc := newTestReportService()

	insertAdjusted(t, "TX-1", "LS Club", 100, mustParseDayMillis(t, "2024-01-15"))
	insertAdjusted(t, "TX-2", "LS Club", 50, mustParseDayMillis(t, "2024-02-15"))
	insertAdjusted(t, "TX-3", "LS Club", 25, mustParseDayMillis(t, "2024-03-15"))

	t.Run("bounds are inclusive calendar days", func(t *testing.T) {
		result, err := svc.Report("2024-01-15", "2024-02-15", 1)
		require.NoError(t, err)
		assert.Equal(t, 2, result.TotalCount)
		assert.Equal(t, 150.0, result.TotalAmount)
	})

	t.Run("open-ended bounds", func(t *testing.T) {
		result, err := svc.Report("2024-02-01", "", 1)
		require.NoError(t, err)
		assert.Equal(t, 2, result.TotalCount)

		result, err = svc.Report("", "2024-01-31", 1)
		require.NoError(t, err)
		assert.Equal(t, 1, result.TotalCount)
	})

	t.Run("malformed dates abort with a validation error", func(t *testing.T) {
		_, err := svc.Report("2024-13-45", "", 1)
		require.ErrorIs(t, err, ErrInvalidDateFormat)

		_, err = svc.Report("", "not-a-date", 1)
		require.ErrorIs(t, err, ErrInvalidDateFormat)
	})
}

func TestReportPagination(t *testing.T) {
	setupTestDB(t)
	svc := newTestReportService()

	base := mustParseDayMillis(t, "2024-01-01")
	for i := 0; i < 25; i++ {
		insertAdjusted(t, fmt.Sprintf("TX-%02d", i), "LS Club", 10, base+int64(i)*86400000)
	}

	page1, err := svc.Report("", "", 1)
	require.NoError(t, err)
	assert.Len(t, page1.Rows, ReportPageSize)
	assert.Equal(t, 3, page1.TotalPages)
	assert.Equal(t, "TX-24", page1.Rows[0].ExternalID, "rows are ordered by approval date descending")

	page3, err := svc.Report("", "", 3)
	require.NoError(t, err)
	assert.Len(t, page3.Rows, 5)

	t.Run("totals are independent of the page", func(t *testing.T) {
		assert.Equal(t, page1.TotalCount, page3.TotalCount)
		assert.Equal(t, page1.TotalAmount, page3.TotalAmount)
		assert.Equal(t, 250.0, page3.TotalAmount)
	})

	t.Run("page past the end yields empty rows but full totals", func(t *testing.T) {
		page9, err := svc.Report("", "", 9)
		require.NoError(t, err)
		assert.Empty(t, page9.Rows)
		assert.Equal(t, 25, page9.TotalCount)
	})
}

func TestReportMentorNames(t *testing.T) {
	setupTestDB(t)
	svc := newTestReportService()

	res, err := database.DB.Exec("INSERT INTO mentors (name) VALUES ('Laís')")
	require.NoError(t, err)
	mentorID, err := res.LastInsertId()
	require.NoError(t, err)
	_, err = database.DB.Exec("INSERT INTO products (name, mentor_id) VALUES ('LS Club', ?)", mentorID)
	require.NoError(t, err)

	insertAdjusted(t, "TX-1", "LS Club", 100, mustParseDayMillis(t, "2024-01-15"))

	result, err := svc.Report("", "", 1)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Laís", result.Rows[0].MentorName)
	assert.Equal(t, "Laís", productTotal(t, result, "LS Club").MentorName)
}

func TestReportPaymentMethods(t *testing.T) {
	setupTestDB(t)
	svc := newTestReportService()

	jan := mustParseDayMillis(t, "2024-01-15")
	insertTransactionWithPayment(t, "TX-1", "LS Club", "CREDIT_CARD", 100, jan)
	insertAdjusted(t, "TX-1", "LS Club", 100, jan)
	insertTransactionWithPayment(t, "TX-2", "LS Club", "CRYPTO", 50, jan)
	insertAdjusted(t, "TX-2", "LS Club", 50, jan)
	insertAdjusted(t, "TX-3", "LS Club", 25, jan)

	result, err := svc.Report("", "", 1)
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)

	byID := make(map[string]models.ReportRow)
	for _, row := range result.Rows {
		byID[row.ExternalID] = row
	}

	t.Run("seeded codes resolve to their description", func(t *testing.T) {
		assert.Equal(t, "CREDIT_CARD", byID["TX-1"].PaymentMethod)
		assert.Equal(t, "Cartão de crédito", byID["TX-1"].PaymentMethodDescription)
	})

	t.Run("unknown codes fall back to the raw code", func(t *testing.T) {
		assert.Equal(t, "CRYPTO", byID["TX-2"].PaymentMethod)
		assert.Equal(t, "CRYPTO", byID["TX-2"].PaymentMethodDescription)
	})

	t.Run("adjusted row without a raw transaction stays blank", func(t *testing.T) {
		assert.Empty(t, byID["TX-3"].PaymentMethod)
		assert.Empty(t, byID["TX-3"].PaymentMethodDescription)
	})
}

func TestReportCaching(t *testing.T) {
	setupTestDB(t)
	reportCache := cache.New(time.Minute, time.Minute)
	svc := NewReportService(reportCache)

	insertAdjusted(t, "TX-1", "LS Club", 100, mustParseDayMillis(t, "2024-01-15"))

	first, err := svc.Report("", "", 1)
	require.NoError(t, err)

	// A row added behind the cache's back is invisible until invalidation.
	insertAdjusted(t, "TX-2", "LS Club", 100, mustParseDayMillis(t, "2024-01-16"))

	cached, err := svc.Report("", "", 1)
	require.NoError(t, err)
	assert.Equal(t, first.TotalCount, cached.TotalCount)

	reportCache.Flush()
	fresh, err := svc.Report("", "", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.TotalCount)
}
