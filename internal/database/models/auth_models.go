package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleCashier = "cashier"
)

func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleManager || role == RoleCashier
}

type User struct {
	ID                 int64      `gorm:"primaryKey;autoIncrement"`
	FirstName          string     `gorm:"type:varchar(100);not null"`
	LastName           string     `gorm:"type:varchar(100);not null"`
	BirthDate          *time.Time
	IDCardNumber       *string `gorm:"type:varchar(50)"`
	Email              string  `gorm:"type:varchar(255);uniqueIndex;not null"`
	HashedPassword     string  `gorm:"type:varchar(255);not null"`
	Role               string  `gorm:"type:varchar(50);not null"`
	IsActive           bool    `gorm:"default:true"`
	DeactivationReason *string `gorm:"type:text"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func MigrateAuthDB(db *gorm.DB) error {
	return db.AutoMigrate(&User{})
}
