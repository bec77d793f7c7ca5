package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventra-pos/internal/database/models"
)

func TestParseBirthDate(t *testing.T) {
	t.Run("valid date", func(t *testing.T) {
		birthDate, msg := parseBirthDate("1990-06-15")
		require.Empty(t, msg)
		assert.Equal(t, 1990, birthDate.Year())
		assert.Equal(t, time.June, birthDate.Month())
		assert.Equal(t, 15, birthDate.Day())
	})

	t.Run("wrong format", func(t *testing.T) {
		_, msg := parseBirthDate("15/06/1990")
		assert.Equal(t, "Invalid birth date format, expected YYYY-MM-DD", msg)
	})

	t.Run("future date", func(t *testing.T) {
		future := time.Now().AddDate(1, 0, 0).Format(birthDateLayout)
		_, msg := parseBirthDate(future)
		assert.Equal(t, "Birth date cannot be in the future", msg)
	})
}

func TestUserToResponse(t *testing.T) {
	birthDate := time.Date(1985, 2, 3, 0, 0, 0, 0, time.UTC)
	idCard := "AB123456"
	user := models.User{
		ID:           7,
		FirstName:    "Nina",
		LastName:     "Kovacs",
		BirthDate:    &birthDate,
		IDCardNumber: &idCard,
		Email:        "nina@example.com",
		Role:         models.RoleManager,
		IsActive:     true,
	}

	resp := userToResponse(user)
	assert.Equal(t, int64(7), resp.ID)
	assert.Equal(t, "nina@example.com", resp.Email)
	assert.Equal(t, models.RoleManager, resp.Role)
	require.NotNil(t, resp.BirthDate)
	assert.Equal(t, "1985-02-03", *resp.BirthDate)
	require.NotNil(t, resp.IDCardNumber)
	assert.Equal(t, "AB123456", *resp.IDCardNumber)
	assert.True(t, resp.IsActive)
}

func TestUserToResponseOmitsEmptyOptionals(t *testing.T) {
	resp := userToResponse(models.User{ID: 1, Email: "x@example.com", Role: models.RoleCashier})
	assert.Nil(t, resp.BirthDate)
	assert.Nil(t, resp.IDCardNumber)
}
