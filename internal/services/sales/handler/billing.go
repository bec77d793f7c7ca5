package handler

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ventra-pos/internal/database"
	"ventra-pos/internal/database/models"
)

// Payment and status-transition rules for the sale lifecycle. Everything here
// is pure so the preconditions can be checked before any row is touched.

var (
	ErrSaleNotDraft      = errors.New("sale is not in draft status")
	ErrTooManyPayments   = errors.New("maximum 2 payment methods allowed")
	ErrPaymentMismatch   = errors.New("payment amount does not match sale total")
	ErrPaymentRequired   = errors.New("sale can only be completed through payment")
	ErrNotFullyPaid      = errors.New("sale is not fully paid")
	ErrAlreadyFullyPaid  = errors.New("sale is already fully paid")
	ErrSaleCancelled     = errors.New("sale is cancelled")
	ErrUnknownTransition = errors.New("status transition not allowed")
)

const maxPaymentMethods = 2

// paymentTolerance absorbs rounding noise when comparing transaction sums
// against the sale total.
var paymentTolerance = decimal.NewFromFloat(0.01)

type SaleItemRequest struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Quantity  int32  `json:"quantity" binding:"required,min=1"`
	UnitPrice string `json:"unit_price" binding:"required"`
}

type PaymentTransactionRequest struct {
	Amount         string                 `json:"amount" binding:"required"`
	PaymentMethod  string                 `json:"payment_method" binding:"required"`
	AmountReceived *string                `json:"amount_received,omitempty"`
	PaymentDetails map[string]interface{} `json:"payment_details,omitempty"`
}

func parseAmount(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s: %q", field, value)
	}
	return d, nil
}

// itemTotal is quantity × unit price for one line.
func itemTotal(item SaleItemRequest) (decimal.Decimal, error) {
	unitPrice, err := parseAmount("unit_price", item.UnitPrice)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return unitPrice.Mul(decimal.NewFromInt32(item.Quantity)), nil
}

// itemsTotal is the sale total at creation time. It is never recomputed:
// items are immutable once the sale exists.
func itemsTotal(items []SaleItemRequest) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, item := range items {
		line, err := itemTotal(item)
		if err != nil {
			return decimal.Decimal{}, err
		}
		total = total.Add(line)
	}
	return total, nil
}

// validatePaymentTotal checks the submitted transactions against the sale
// total: at most two payment methods, valid methods and amounts, and a sum
// within the tolerance of the total.
func validatePaymentTotal(total decimal.Decimal, txs []PaymentTransactionRequest) error {
	if len(txs) == 0 {
		return ErrPaymentMismatch
	}
	if len(txs) > maxPaymentMethods {
		return ErrTooManyPayments
	}

	sum := decimal.Zero
	for _, tx := range txs {
		if !models.ValidPaymentMethod(tx.PaymentMethod) {
			return fmt.Errorf("invalid payment method: %q", tx.PaymentMethod)
		}
		amount, err := parseAmount("amount", tx.Amount)
		if err != nil {
			return err
		}
		sum = sum.Add(amount)
	}

	if sum.Sub(total).Abs().GreaterThan(paymentTolerance) {
		return ErrPaymentMismatch
	}
	return nil
}

// cashChange is amount_received − amount for cash transactions, zero for
// every other method.
func cashChange(tx PaymentTransactionRequest) (decimal.Decimal, error) {
	if tx.PaymentMethod != models.PaymentMethodCash || tx.AmountReceived == nil {
		return decimal.Zero, nil
	}
	amount, err := parseAmount("amount", tx.Amount)
	if err != nil {
		return decimal.Decimal{}, err
	}
	received, err := parseAmount("amount_received", *tx.AmountReceived)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return received.Sub(amount), nil
}

// completedTotal sums the amounts of COMPLETED transactions.
func completedTotal(txs []models.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range txs {
		if tx.Status != models.TransactionStatusCompleted {
			continue
		}
		amount, err := decimal.NewFromString(tx.Amount)
		if err != nil {
			continue
		}
		sum = sum.Add(amount)
	}
	return sum
}

// isFullyPaid reports whether the completed transactions cover the sale total
// within the payment tolerance.
func isFullyPaid(sale models.Sale) bool {
	total, err := decimal.NewFromString(sale.TotalAmount)
	if err != nil {
		return false
	}
	return completedTotal(sale.Transactions).Sub(total).Abs().LessThanOrEqual(paymentTolerance)
}

// remainingAmount is the sale total minus completed payments, floored at zero.
func remainingAmount(sale models.Sale) decimal.Decimal {
	total, err := decimal.NewFromString(sale.TotalAmount)
	if err != nil {
		return decimal.Zero
	}
	remaining := total.Sub(completedTotal(sale.Transactions))
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// validateTransition enforces the sale status lifecycle for explicit status
// updates. Payment is the only path into COMPLETED from DRAFT, so that
// transition is rejected here.
func validateTransition(sale models.Sale, next string) error {
	current := sale.Status
	if next == current {
		return nil
	}
	if next == models.SaleStatusCancelled {
		return nil
	}
	if current == models.SaleStatusCancelled {
		return ErrSaleCancelled
	}

	switch next {
	case models.SaleStatusCompleted:
		if current == models.SaleStatusDraft {
			return ErrPaymentRequired
		}
		// PENDING -> COMPLETED
		if !isFullyPaid(sale) {
			return ErrNotFullyPaid
		}
		return nil
	case models.SaleStatusPending:
		if current == models.SaleStatusCompleted && isFullyPaid(sale) {
			return ErrAlreadyFullyPaid
		}
		return nil
	default:
		return ErrUnknownTransition
	}
}

// refundCompletedTransactions flips every COMPLETED transaction to REFUNDED
// and stamps refund_date/refund_reason in its payment details. It returns the
// indexes of the transactions it changed; others are left untouched.
func refundCompletedTransactions(txs []models.Transaction, refundedAt time.Time, reason string) []int {
	stamp := refundedAt.UTC().Format(time.RFC3339)
	var changed []int
	for i := range txs {
		if txs[i].Status != models.TransactionStatusCompleted {
			continue
		}
		txs[i].Status = models.TransactionStatusRefunded
		details := txs[i].PaymentDetails
		if details == nil {
			details = database.JSONMap{}
		}
		details["refund_date"] = stamp
		details["refund_reason"] = reason
		txs[i].PaymentDetails = details
		changed = append(changed, i)
	}
	return changed
}

// saleNumber formats V<YYYYMMDD>-<NNNNN> from the next row id. The id comes
// from the current max id + 1; the unique index on sale_number turns a
// concurrent duplicate into an insert conflict instead of a silent dupe.
func saleNumber(nextID int64, now time.Time) string {
	return fmt.Sprintf("V%s-%05d", now.Format("20060102"), nextID)
}
