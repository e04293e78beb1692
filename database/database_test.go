package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghassane04/EcoLabel-MS/models"
)

func TestOpen_SeedsOnce(t *testing.T) {
	db, err := Open("file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)

	var factors []models.EmissionFactor
	require.NoError(t, db.Order("name").Find(&factors).Error)
	require.Len(t, factors, 5)
	assert.Equal(t, "glass", factors[0].Name)

	require.NoError(t, db.Where("name = ?", "glass").Delete(&models.EmissionFactor{}).Error)
	require.NoError(t, SeedFactors(db))
	var count int64
	db.Model(&models.EmissionFactor{}).Count(&count)
	assert.Equal(t, int64(4), count)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "postgres://eco:***@db:5432/ecolabel", redact("postgres://eco:secret@db:5432/ecolabel"))
	assert.Equal(t, "ecolabel.db", redact("ecolabel.db"))
}
