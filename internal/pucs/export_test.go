package pucs_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JaimeStill/factotum/internal/pucs"
)

func TestWriteWorkbook(t *testing.T) {
	fam := puc("Personal care", "hair", "")
	fam.Description = "Hair care products"
	fam.ProductCount = 3
	fam.CumulativeProductCount = 9

	var buf bytes.Buffer
	require.NoError(t, pucs.WriteWorkbook(&buf, []pucs.PUC{fam}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"PUCs"}, f.GetSheetList())

	rows, err := f.GetRows("PUCs")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "General Category", rows[0][2])
	assert.Equal(t, "Cumulative Product Count", rows[0][8])

	row := rows[1]
	assert.Equal(t, fam.ID.String(), row[0])
	assert.Equal(t, "FO", row[1])
	assert.Equal(t, "Personal care", row[2])
	assert.Equal(t, "hair", row[3])
	assert.Equal(t, "2", row[5])
	assert.Equal(t, "Hair care products", row[6])
	assert.Equal(t, "3", row[7])
	assert.Equal(t, "9", row[8])
}

func TestWriteWorkbookHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, pucs.WriteWorkbook(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("PUCs")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
