package models

import (
	"time"

	"gorm.io/gorm"

	"ventra-pos/internal/database"
)

const (
	SaleStatusDraft     = "DRAFT"
	SaleStatusPending   = "PENDING"
	SaleStatusCompleted = "COMPLETED"
	SaleStatusCancelled = "CANCELLED"
)

const (
	PaymentMethodCash     = "CASH"
	PaymentMethodCard     = "CARD"
	PaymentMethodTransfer = "TRANSFER"
)

const (
	TransactionStatusPending   = "PENDING"
	TransactionStatusCompleted = "COMPLETED"
	TransactionStatusFailed    = "FAILED"
	TransactionStatusRefunded  = "REFUNDED"
)

func ValidSaleStatus(s string) bool {
	switch s {
	case SaleStatusDraft, SaleStatusPending, SaleStatusCompleted, SaleStatusCancelled:
		return true
	}
	return false
}

func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer:
		return true
	}
	return false
}

func ValidTransactionStatus(s string) bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusRefunded:
		return true
	}
	return false
}

type Customer struct {
	ID        int64   `gorm:"primaryKey;autoIncrement"`
	FirstName string  `gorm:"type:varchar(100);not null"`
	LastName  string  `gorm:"type:varchar(100);not null"`
	Email     *string `gorm:"type:varchar(255)"`
	Phone     *string `gorm:"type:varchar(20)"`
	Address   *string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Sales []Sale `gorm:"foreignKey:CustomerID"`
}

type Sale struct {
	ID          int64   `gorm:"primaryKey;autoIncrement"`
	SaleNumber  string  `gorm:"type:varchar(20);uniqueIndex;not null"`
	CashierID   int64   `gorm:"index;not null"`
	CustomerID  *int64  `gorm:"index"`
	TotalAmount string  `gorm:"type:decimal(18,2);not null"`
	Status      string  `gorm:"type:varchar(20);index;not null"`
	Notes       *string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Customer     *Customer     `gorm:"foreignKey:CustomerID"`
	Items        []SaleItem    `gorm:"foreignKey:SaleID"`
	Transactions []Transaction `gorm:"foreignKey:SaleID"`
}

type SaleItem struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	SaleID     int64  `gorm:"index;not null"`
	ProductID  int64  `gorm:"not null"`
	Quantity   int32  `gorm:"not null"`
	UnitPrice  string `gorm:"type:decimal(18,2);not null"`
	TotalPrice string `gorm:"type:decimal(18,2);not null"`
	CreatedAt  time.Time
}

type Transaction struct {
	ID             int64   `gorm:"primaryKey;autoIncrement"`
	SaleID         int64   `gorm:"index;not null"`
	Reference      string  `gorm:"type:varchar(36);uniqueIndex;not null"`
	Amount         string  `gorm:"type:decimal(18,2);not null"`
	AmountReceived *string `gorm:"type:decimal(18,2)"`
	ChangeAmount   string  `gorm:"type:decimal(18,2);not null;default:'0.00'"`
	PaymentMethod  string  `gorm:"type:varchar(20);not null"`
	Status         string  `gorm:"type:varchar(20);index;not null"`
	PaymentDetails database.JSONMap `gorm:"type:jsonb"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func MigrateSalesDB(db *gorm.DB) error {
	return db.AutoMigrate(&Customer{}, &Sale{}, &SaleItem{}, &Transaction{})
}
