package handler

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventra-pos/internal/database/models"
)

func strPtr(s string) *string { return &s }

func TestItemsTotal(t *testing.T) {
	items := []SaleItemRequest{
		{ProductID: 1, Quantity: 2, UnitPrice: "10.00"},
		{ProductID: 2, Quantity: 1, UnitPrice: "5.00"},
	}

	total, err := itemsTotal(items)
	require.NoError(t, err)
	assert.Equal(t, "25.00", total.StringFixed(2))
}

func TestItemsTotalInvalidPrice(t *testing.T) {
	items := []SaleItemRequest{
		{ProductID: 1, Quantity: 1, UnitPrice: "abc"},
	}

	_, err := itemsTotal(items)
	assert.Error(t, err)
}

func TestValidatePaymentTotal(t *testing.T) {
	total := decimal.RequireFromString("25.00")

	t.Run("exact single payment", func(t *testing.T) {
		err := validatePaymentTotal(total, []PaymentTransactionRequest{
			{Amount: "25.00", PaymentMethod: models.PaymentMethodCash},
		})
		assert.NoError(t, err)
	})

	t.Run("split across two methods", func(t *testing.T) {
		err := validatePaymentTotal(total, []PaymentTransactionRequest{
			{Amount: "20.00", PaymentMethod: models.PaymentMethodCard},
			{Amount: "5.00", PaymentMethod: models.PaymentMethodCash},
		})
		assert.NoError(t, err)
	})

	t.Run("within tolerance", func(t *testing.T) {
		err := validatePaymentTotal(total, []PaymentTransactionRequest{
			{Amount: "25.01", PaymentMethod: models.PaymentMethodCard},
		})
		assert.NoError(t, err)
	})

	t.Run("overpayment rejected", func(t *testing.T) {
		err := validatePaymentTotal(total, []PaymentTransactionRequest{
			{Amount: "30.00", PaymentMethod: models.PaymentMethodCash},
		})
		assert.ErrorIs(t, err, ErrPaymentMismatch)
	})

	t.Run("underpayment rejected", func(t *testing.T) {
		err := validatePaymentTotal(total, []PaymentTransactionRequest{
			{Amount: "20.00", PaymentMethod: models.PaymentMethodCash},
		})
		assert.ErrorIs(t, err, ErrPaymentMismatch)
	})

	t.Run("no transactions", func(t *testing.T) {
		err := validatePaymentTotal(total, nil)
		assert.ErrorIs(t, err, ErrPaymentMismatch)
	})

	t.Run("more than two methods", func(t *testing.T) {
		err := validatePaymentTotal(total, []PaymentTransactionRequest{
			{Amount: "10.00", PaymentMethod: models.PaymentMethodCash},
			{Amount: "10.00", PaymentMethod: models.PaymentMethodCard},
			{Amount: "5.00", PaymentMethod: models.PaymentMethodTransfer},
		})
		assert.ErrorIs(t, err, ErrTooManyPayments)
	})

	t.Run("unknown method", func(t *testing.T) {
		err := validatePaymentTotal(total, []PaymentTransactionRequest{
			{Amount: "25.00", PaymentMethod: "CHEQUE"},
		})
		assert.Error(t, err)
	})

	t.Run("malformed amount", func(t *testing.T) {
		err := validatePaymentTotal(total, []PaymentTransactionRequest{
			{Amount: "twenty", PaymentMethod: models.PaymentMethodCash},
		})
		assert.Error(t, err)
	})
}

func TestCashChange(t *testing.T) {
	t.Run("cash with received amount", func(t *testing.T) {
		change, err := cashChange(PaymentTransactionRequest{
			Amount:         "25.00",
			PaymentMethod:  models.PaymentMethodCash,
			AmountReceived: strPtr("30.00"),
		})
		require.NoError(t, err)
		assert.Equal(t, "5.00", change.StringFixed(2))
	})

	t.Run("cash without received amount", func(t *testing.T) {
		change, err := cashChange(PaymentTransactionRequest{
			Amount:        "25.00",
			PaymentMethod: models.PaymentMethodCash,
		})
		require.NoError(t, err)
		assert.True(t, change.IsZero())
	})

	t.Run("card ignores received amount", func(t *testing.T) {
		change, err := cashChange(PaymentTransactionRequest{
			Amount:         "25.00",
			PaymentMethod:  models.PaymentMethodCard,
			AmountReceived: strPtr("30.00"),
		})
		require.NoError(t, err)
		assert.True(t, change.IsZero())
	})
}

func saleWithPayments(status string, total string, paid ...string) models.Sale {
	sale := models.Sale{Status: status, TotalAmount: total}
	for _, amount := range paid {
		sale.Transactions = append(sale.Transactions, models.Transaction{
			Amount: amount,
			Status: models.TransactionStatusCompleted,
		})
	}
	return sale
}

func TestRemainingAmount(t *testing.T) {
	sale := saleWithPayments(models.SaleStatusPending, "100.00", "40.00")
	assert.Equal(t, "60.00", remainingAmount(sale).StringFixed(2))

	sale.Transactions = append(sale.Transactions, models.Transaction{
		Amount: "70.00",
		Status: models.TransactionStatusCompleted,
	})
	assert.Equal(t, "0.00", remainingAmount(sale).StringFixed(2))
}

func TestRemainingAmountIgnoresPending(t *testing.T) {
	sale := saleWithPayments(models.SaleStatusPending, "100.00")
	sale.Transactions = append(sale.Transactions, models.Transaction{
		Amount: "100.00",
		Status: models.TransactionStatusPending,
	})
	assert.Equal(t, "100.00", remainingAmount(sale).StringFixed(2))
	assert.False(t, isFullyPaid(sale))
}

func TestValidateTransition(t *testing.T) {
	t.Run("same status is a no-op", func(t *testing.T) {
		sale := saleWithPayments(models.SaleStatusDraft, "10.00")
		assert.NoError(t, validateTransition(sale, models.SaleStatusDraft))
	})

	t.Run("anything can be cancelled", func(t *testing.T) {
		for _, status := range []string{models.SaleStatusDraft, models.SaleStatusPending, models.SaleStatusCompleted} {
			sale := saleWithPayments(status, "10.00")
			assert.NoError(t, validateTransition(sale, models.SaleStatusCancelled), status)
		}
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		sale := saleWithPayments(models.SaleStatusCancelled, "10.00")
		assert.ErrorIs(t, validateTransition(sale, models.SaleStatusPending), ErrSaleCancelled)
		assert.ErrorIs(t, validateTransition(sale, models.SaleStatusCompleted), ErrSaleCancelled)
	})

	t.Run("draft cannot complete without payment", func(t *testing.T) {
		sale := saleWithPayments(models.SaleStatusDraft, "10.00")
		assert.ErrorIs(t, validateTransition(sale, models.SaleStatusCompleted), ErrPaymentRequired)
	})

	t.Run("pending completes only when fully paid", func(t *testing.T) {
		unpaid := saleWithPayments(models.SaleStatusPending, "10.00")
		assert.ErrorIs(t, validateTransition(unpaid, models.SaleStatusCompleted), ErrNotFullyPaid)

		paid := saleWithPayments(models.SaleStatusPending, "10.00", "10.00")
		assert.NoError(t, validateTransition(paid, models.SaleStatusCompleted))
	})

	t.Run("fully paid sale cannot go back to pending", func(t *testing.T) {
		sale := saleWithPayments(models.SaleStatusCompleted, "10.00", "10.00")
		assert.ErrorIs(t, validateTransition(sale, models.SaleStatusPending), ErrAlreadyFullyPaid)
	})

	t.Run("unknown target status", func(t *testing.T) {
		sale := saleWithPayments(models.SaleStatusDraft, "10.00")
		assert.ErrorIs(t, validateTransition(sale, "ARCHIVED"), ErrUnknownTransition)
	})
}

func TestRefundCompletedTransactions(t *testing.T) {
	refundedAt := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	txs := []models.Transaction{
		{Amount: "10.00", Status: models.TransactionStatusCompleted},
		{Amount: "5.00", Status: models.TransactionStatusPending},
		{Amount: "15.00", Status: models.TransactionStatusCompleted, PaymentDetails: map[string]interface{}{"card_last4": "4242"}},
		{Amount: "2.00", Status: models.TransactionStatusFailed},
	}

	changed := refundCompletedTransactions(txs, refundedAt, "Sale cancelled")
	assert.Equal(t, []int{0, 2}, changed)

	refunded := 0
	completed := 0
	for _, tx := range txs {
		switch tx.Status {
		case models.TransactionStatusRefunded:
			refunded++
		case models.TransactionStatusCompleted:
			completed++
		}
	}
	assert.Equal(t, 2, refunded)
	assert.Equal(t, 0, completed)

	for _, i := range changed {
		require.NotNil(t, txs[i].PaymentDetails)
		assert.Equal(t, "2025-03-14T09:30:00Z", txs[i].PaymentDetails["refund_date"])
		assert.Equal(t, "Sale cancelled", txs[i].PaymentDetails["refund_reason"])
	}

	// Pre-existing details survive the stamping.
	assert.Equal(t, "4242", txs[2].PaymentDetails["card_last4"])

	// Non-completed transactions are untouched.
	assert.Equal(t, models.TransactionStatusPending, txs[1].Status)
	assert.Nil(t, txs[1].PaymentDetails)
	assert.Equal(t, models.TransactionStatusFailed, txs[3].Status)
}

func TestRefundCompletedTransactionsNoneCompleted(t *testing.T) {
	txs := []models.Transaction{
		{Amount: "10.00", Status: models.TransactionStatusPending},
	}
	assert.Empty(t, refundCompletedTransactions(txs, time.Now(), "Sale cancelled"))
	assert.Equal(t, models.TransactionStatusPending, txs[0].Status)
}

func TestSaleNumber(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "V20250314-00001", saleNumber(1, now))
	assert.Equal(t, "V20250314-00042", saleNumber(42, now))
	assert.Equal(t, "V20250314-123456", saleNumber(123456, now))
}
