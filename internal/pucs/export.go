package pucs

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "PUCs"

var exportHeader = []any{
	"ID",
	"Kind",
	"General Category",
	"Product Family",
	"Product Type",
	"Level",
	"Description",
	"Product Count",
	"Cumulative Product Count",
}

// WriteWorkbook writes one row per PUC, with its counts, to an XLSX workbook.
func WriteWorkbook(w io.Writer, items []PUC) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, p := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			p.ID.String(),
			string(p.Kind),
			p.GenCat,
			p.ProdFam,
			p.ProdType,
			int(p.Level),
			p.Description,
			p.ProductCount,
			p.CumulativeProductCount,
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	last, err := excelize.CoordinatesToCellName(len(exportHeader), 1)
	if err != nil {
		return err
	}
	if err := f.AutoFilter(exportSheet, "A1:"+last, nil); err != nil {
		return fmt.Errorf("set autofilter: %w", err)
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
