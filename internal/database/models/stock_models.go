package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	MovementTypeIn  = "IN"
	MovementTypeOut = "OUT"
)

func ValidMovementType(t string) bool {
	return t == MovementTypeIn || t == MovementTypeOut
}

type Category struct {
	ID          int64   `gorm:"primaryKey;autoIncrement"`
	Name        string  `gorm:"type:varchar(255);uniqueIndex;not null"`
	Description *string `gorm:"type:text"`
	CreatedBy   *int64
	UpdatedBy   *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Products []Product `gorm:"many2many:product_categories"`
}

type Product struct {
	ID            int64   `gorm:"primaryKey;autoIncrement"`
	ArticleNumber *string `gorm:"type:varchar(50);uniqueIndex"`
	Name          string  `gorm:"type:varchar(255);not null"`
	Description   *string `gorm:"type:text"`
	Price         string  `gorm:"type:decimal(18,2);not null"`
	Quantity      int32   `gorm:"not null;default:0"`
	CreatedBy     *int64
	UpdatedBy     *int64
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Categories     []Category      `gorm:"many2many:product_categories"`
	StockMovements []StockMovement `gorm:"foreignKey:ProductID"`
}

type StockMovement struct {
	ID           int64   `gorm:"primaryKey;autoIncrement"`
	ProductID    int64   `gorm:"index;not null"`
	Quantity     int32   `gorm:"not null"`
	MovementType string  `gorm:"type:varchar(8);not null"`
	Reason       *string `gorm:"type:text"`
	CreatedBy    int64   `gorm:"not null"`
	CreatedAt    time.Time
}

func MigrateStockDB(db *gorm.DB) error {
	return db.AutoMigrate(&Category{}, &Product{}, &StockMovement{})
}
