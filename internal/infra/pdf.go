package infra

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/marimovDEV/v0-crm-pos-system/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// ReceiptHeader is the store branding printed on every receipt.
type ReceiptHeader struct {
	StoreName string
	Footer    string
}

// ReceiptFileName is the file a sale's receipt is stored under.
func ReceiptFileName(receiptID string) string {
	return "receipt_" + receiptID + ".pdf"
}

// GenerateReceiptPDF renders a thermal-style receipt for a committed sale
// into storagePath (created if needed) and returns the file path.
// Quantities are printed in the unit they were sold in, with the base-unit
// equivalent underneath for sell-unit lines.
func GenerateReceiptPDF(sale *model.Sale, header ReceiptHeader, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, ReceiptFileName(sale.ReceiptID))

	// 80mm roll; height grows with the number of lines.
	height := 70 + float64(len(sale.Items))*9
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 80, Ht: height},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 7, tr(header.StoreName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, sale.ReceiptID, "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 4, sale.CreatedAt.Format("02.01.2006 15:04"), "", 1, "C", false, 0, "")
	if sale.CustomerName != nil {
		pdf.CellFormat(contentW, 4, tr("Mijoz: "+*sale.CustomerName), "", 1, "L", false, 0, "")
	}
	pdf.Ln(1)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(1)

	col1 := contentW * 0.50
	col2 := contentW * 0.20
	col3 := contentW * 0.30

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, tr("Mahsulot"), "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Miqdor", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Summa", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, it := range sale.Items {
		name := []rune(it.ProductName)
		if len(name) > 24 {
			name = append(name[:23], '.')
		}
		pdf.CellFormat(col1, 5, tr(string(name)), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, it.Quantity.String()+" x", "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, it.Total.StringFixed(2), "", 1, "R", false, 0, "")
		if it.UnitType == model.UnitTypeSell && !it.UnitRatioAtSale.Equal(decimal.NewFromInt(1)) {
			pdf.SetFont("Helvetica", "I", 6)
			pdf.CellFormat(contentW, 3.5, fmt.Sprintf("  = %s (x%s) @ %s", it.BaseUnitQuantity.String(), it.UnitRatioAtSale.String(), it.Price.StringFixed(2)), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 7)
		}
	}

	pdf.Ln(1)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(1)

	if !sale.DiscountAmount.IsZero() {
		pdf.CellFormat(col1+col2, 5, "Jami:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, sale.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
		pdf.CellFormat(col1+col2, 5, "Chegirma:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, "-"+sale.DiscountAmount.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TO'LOV:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, sale.TotalAmount.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, "To'lov turi: "+string(sale.PaymentMethod), "", 1, "L", false, 0, "")
	if sale.IsDebtSale {
		pdf.CellFormat(contentW, 4, "Qarzga yozildi", "", 1, "L", false, 0, "")
	}

	if header.Footer != "" {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.CellFormat(contentW, 4, tr(header.Footer), "", 1, "C", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
