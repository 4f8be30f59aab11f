package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/vendasbanco/src/database"
)

func TestNormalize(t *testing.T) {
	t.Run("canonicalizes product names", func(t *testing.T) {
		setupTestDB(t)
		svc := NewAdjustmentService()

		ms := mustParseDayMillis(t, "2024-03-10")
		insertTransaction(t, "TX-1", " Imersão Evolution ", "Maria", "maria@example.com", 500, ms)
		insertTransaction(t, "TX-2", "IMERSÃO EVOLUTION JULHO 2024", "João", "joao@example.com", 500, ms)
		insertTransaction(t, "TX-3", "Produto Desconhecido ", "Ana", "ana@example.com", 80, ms)

		count, err := svc.Normalize()
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		expect := map[string]string{
			"TX-1": "Imersão Evolution",
			"TX-2": "Imersão Evolution",
			"TX-3": "Produto Desconhecido",
		}
		for externalID, want := range expect {
			var got string
			require.NoError(t, database.DB.QueryRow(
				"SELECT product_name FROM adjusted_transactions WHERE external_id = ?", externalID).Scan(&got))
			assert.Equal(t, want, got, "externalID %s", externalID)
		}
	})

	t.Run("copies buyer fields and approval date", func(t *testing.T) {
		setupTestDB(t)
		svc := NewAdjustmentService()

		ms := mustParseDayMillis(t, "2024-03-10")
		insertTransaction(t, "TX-1", "LS Club", "Maria", "maria@example.com", 123.45, ms)

		_, err := svc.Normalize()
		require.NoError(t, err)

		var buyerName, buyerEmail string
		var amount float64
		var approvedMs int64
		require.NoError(t, database.DB.QueryRow(`
			SELECT buyer_name, buyer_email, amount, approved_at
			FROM adjusted_transactions WHERE external_id = 'TX-1'`).
			Scan(&buyerName, &buyerEmail, &amount, &approvedMs))
		assert.Equal(t, "Maria", buyerName)
		assert.Equal(t, "maria@example.com", buyerEmail)
		assert.Equal(t, 123.45, amount)
		assert.Equal(t, ms, approvedMs)
	})

	t.Run("is idempotent", func(t *testing.T) {
		setupTestDB(t)
		svc := NewAdjustmentService()

		ms := mustParseDayMillis(t, "2024-03-10")
		insertTransaction(t, "TX-1", "LS Club", "Maria", "maria@example.com", 100, ms)

		count, err := svc.Normalize()
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		count, err = svc.Normalize()
		require.NoError(t, err)
		assert.Equal(t, 0, count, "second run with no new transactions writes zero rows")
		assert.Equal(t, 1, countRows(t, "adjusted_transactions"))
	})

	t.Run("picks up transactions added between runs", func(t *testing.T) {
		setupTestDB(t)
		svc := NewAdjustmentService()

		ms := mustParseDayMillis(t, "2024-03-10")
		insertTransaction(t, "TX-1", "LS Club", "Maria", "maria@example.com", 100, ms)

		_, err := svc.Normalize()
		require.NoError(t, err)

		insertTransaction(t, "TX-2", "LS Club", "João", "joao@example.com", 100, ms)

		count, err := svc.Normalize()
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Equal(t, 2, countRows(t, "adjusted_transactions"))
	})
}
