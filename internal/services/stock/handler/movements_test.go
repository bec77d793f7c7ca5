package handler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventra-pos/internal/database/models"
)

func TestApplyMovement(t *testing.T) {
	t.Run("in adds", func(t *testing.T) {
		quantity, err := applyMovement(10, models.MovementTypeIn, 5)
		require.NoError(t, err)
		assert.Equal(t, int32(15), quantity)
	})

	t.Run("out subtracts", func(t *testing.T) {
		quantity, err := applyMovement(10, models.MovementTypeOut, 4)
		require.NoError(t, err)
		assert.Equal(t, int32(6), quantity)
	})

	t.Run("out of entire stock", func(t *testing.T) {
		quantity, err := applyMovement(10, models.MovementTypeOut, 10)
		require.NoError(t, err)
		assert.Equal(t, int32(0), quantity)
	})

	t.Run("out beyond stock leaves quantity untouched", func(t *testing.T) {
		quantity, err := applyMovement(10, models.MovementTypeOut, 11)
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.Equal(t, int32(10), quantity)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := applyMovement(10, "TRANSFER", 1)
		assert.Error(t, err)
	})

	t.Run("in up to the counter limit", func(t *testing.T) {
		quantity, err := applyMovement(math.MaxInt32-5, models.MovementTypeIn, 5)
		require.NoError(t, err)
		assert.Equal(t, int32(math.MaxInt32), quantity)
	})

	t.Run("in beyond the counter limit leaves quantity untouched", func(t *testing.T) {
		quantity, err := applyMovement(math.MaxInt32-5, models.MovementTypeIn, 6)
		assert.ErrorIs(t, err, ErrStockOverflow)
		assert.Equal(t, int32(math.MaxInt32-5), quantity)
	})
}

func TestValidMovementType(t *testing.T) {
	assert.True(t, models.ValidMovementType(models.MovementTypeIn))
	assert.True(t, models.ValidMovementType(models.MovementTypeOut))
	assert.False(t, models.ValidMovementType("in"))
	assert.False(t, models.ValidMovementType(""))
}
