package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/curalink/curalink-api/internal/models"
	"github.com/xuri/excelize/v2"
)

const inventorySheet = "Inventory"

var inventoryHeader = []string{"Medication", "Stock Level", "Expiration Date", "Status"}

var inventoryColumnWidths = []float64{32, 14, 18, 14}

// inventoryStatus labels an item for the export's Status column.
func inventoryStatus(item models.InventoryItem, now time.Time) string {
	switch {
	case !item.ExpirationDate.After(now):
		return "Expired"
	case item.StockLevel == 0:
		return "Out of stock"
	default:
		return "In stock"
	}
}

// buildInventoryWorkbook renders items as an .xlsx file.
func buildInventoryWorkbook(items []models.InventoryItem, now time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(inventorySheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, title := range inventoryHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(inventorySheet, cell, title); err != nil {
			return nil, fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(inventorySheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("style header %s: %w", cell, err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(inventorySheet, name, name, inventoryColumnWidths[col]); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	for i, item := range items {
		row := []interface{}{
			item.MedicationName,
			item.StockLevel,
			item.ExpirationDate.UTC().Format("2006-01-02"),
			inventoryStatus(item, now),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(inventorySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
