package handler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedProductListKeepsTrueTotal(t *testing.T) {
	payload := cachedProductList{
		Products: []ProductResponse{
			{ID: 1, Name: "Espresso beans", Price: "12.50"},
			{ID: 2, Name: "Filter paper", Price: "3.20"},
		},
		Total: 250,
	}

	jsonData, err := json.Marshal(payload)
	require.NoError(t, err)

	var cached cachedProductList
	require.NoError(t, json.Unmarshal(jsonData, &cached))

	// The total on a cache hit is the full row count, not the page length.
	assert.Equal(t, int64(250), cached.Total)
	assert.Len(t, cached.Products, 2)
}
