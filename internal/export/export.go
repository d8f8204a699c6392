// Package export writes inventory items as CSV or XLSX spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/erazemk/inventar/internal/model"
)

// Columns is the export header row.
var Columns = []string{
	"inventoryName", "dateofPurchase", "price", "serialNumber", "remark",
	"timeStamp", "roomName", "ownerName", "categoryName", "brandName",
	"warranty", "imageFileName", "invoiceFileName", "id",
}

// SheetName is the worksheet name of XLSX exports.
const SheetName = "Inventory"

func record(it *model.Item) []string {
	purchased := ""
	if it.PurchaseDate != nil {
		purchased = it.PurchaseDate.Format(time.DateOnly)
	}
	return []string{
		it.Name,
		purchased,
		strconv.FormatInt(it.Price, 10),
		it.SerialNumber,
		it.Remark,
		it.CreatedAt.UTC().Format(time.RFC3339),
		it.RoomName,
		it.OwnerName,
		it.CategoryName,
		it.BrandName,
		strconv.Itoa(it.WarrantyMonths),
		it.ImageFileName,
		it.InvoiceFileName,
		it.ID.String(),
	}
}

// CSV writes items with a header row.
func CSV(w io.Writer, items []model.Item) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for i := range items {
		if err := cw.Write(record(&items[i])); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// XLSX writes items to a single-sheet workbook. Price and warranty are
// numeric cells.
func XLSX(w io.Writer, items []model.Item) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return fmt.Errorf("adding sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, col := range Columns {
		header.AddCell().SetString(col)
	}

	for i := range items {
		row := sheet.AddRow()
		for j, v := range record(&items[i]) {
			cell := row.AddCell()
			switch Columns[j] {
			case "price":
				cell.SetInt64(items[i].Price)
			case "warranty":
				cell.SetInt(items[i].WarrantyMonths)
			default:
				cell.SetString(v)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing xlsx: %w", err)
	}
	return nil
}
