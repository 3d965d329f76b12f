package domain

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog_ListActiveKeepsInsertionOrder(t *testing.T) {
	packs := []Pack{
		{ID: 30, Code: "gold", Year: 2026, IsActive: true, Ranges: bronzeRanges()},
		{ID: 10, Code: "bronze", Year: 2026, IsActive: true, Ranges: bronzeRanges()},
		{ID: 20, Code: "legacy", Year: 2025, IsActive: true, Ranges: bronzeRanges()},
		{ID: 40, Code: "retired", Year: 2026, IsActive: false, Ranges: bronzeRanges()},
	}

	catalog, err := NewCatalog(packs)
	require.NoError(t, err)
	assert.Equal(t, 4, catalog.Len())

	active := catalog.ListActive(2026)
	require.Len(t, active, 2)
	assert.Equal(t, "gold", active[0].Code)
	assert.Equal(t, "bronze", active[1].Code)

	assert.Empty(t, catalog.ListActive(2024))
}

func TestNewCatalog_FailsFastOnInvalidPack(t *testing.T) {
	packs := []Pack{
		{ID: 1, Code: "ok", Year: 2026, Ranges: bronzeRanges()},
		{ID: 2, Code: "bad", Year: 2026, Ranges: []Range{rng("0", "10", "50"), rng("20", "", "60")}},
	}
	_, err := NewCatalog(packs)
	assert.ErrorIs(t, err, ErrInvalidRangeData)
}

func TestNewCatalog_RejectsDuplicateIDs(t *testing.T) {
	packs := []Pack{
		{ID: 1, Code: "a", Ranges: bronzeRanges()},
		{ID: 1, Code: "b", Ranges: bronzeRanges()},
	}
	_, err := NewCatalog(packs)
	assert.Error(t, err)
}

func TestCatalog_GetReturnsIsolatedCopy(t *testing.T) {
	catalog, err := NewCatalog([]Pack{{ID: 7, Code: "bronze", Ranges: bronzeRanges()}})
	require.NoError(t, err)

	p, err := catalog.Get(7)
	require.NoError(t, err)
	p.Ranges[0].Percentage = decimal.NewFromInt(1)

	again, err := catalog.Get(7)
	require.NoError(t, err)
	assert.True(t, again.Ranges[0].Percentage.Equal(decimal.NewFromInt(68)))

	_, err = catalog.Get(snowflake.ID(99))
	assert.ErrorIs(t, err, ErrPackNotFound)
}

func TestCatalog_NilIsEmpty(t *testing.T) {
	var c *Catalog
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.ListActive(2026))
	_, err := c.Get(1)
	assert.ErrorIs(t, err, ErrPackNotFound)
}
