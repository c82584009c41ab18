package report

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	valid, enriched := fixture(t)
	path := filepath.Join(t.TempDir(), "out", "sales_report.xlsx")

	err := New(WithClock(fixedClock)).WriteXLSX(context.Background(), path, valid, enriched)
	assert.NoError(t, err)

	f, err := excelize.OpenFile(path)
	assert.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SummarySheet, RegionsSheet, ProductsSheet, CustomersSheet, DailySheet}, f.GetSheetList())

	generated, err := f.GetCellValue(SummarySheet, "B1")
	assert.NoError(t, err)
	assert.Equal(t, "2024-12-18 14:30:22", generated)

	regions, err := f.GetRows(RegionsSheet)
	assert.NoError(t, err)
	assert.Equal(t, 4, len(regions))
	assert.Equal(t, []string{"Region", "Sales", "% of Total", "Transactions"}, regions[0])
	assert.Equal(t, "North", regions[1][0])
	assert.Equal(t, "108000", regions[1][1])

	products, err := f.GetRows(ProductsSheet)
	assert.NoError(t, err)
	assert.Equal(t, 5, len(products))
	assert.Equal(t, []string{"Keyboard", "12", "18000", "FALSE"}, products[1])
	assert.Equal(t, "TRUE", products[2][3])

	days, err := f.GetRows(DailySheet)
	assert.NoError(t, err)
	assert.Equal(t, "2024-12-01", days[1][0])
}
