package reports

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/ishantswami13-crypto/minibank-backend/internal/domain"
	"github.com/ishantswami13-crypto/minibank-backend/internal/money"
)

var colW = []float64{26, 28, 66, 32, 30}

// RenderPDF draws the statement as an A4 document.
func RenderPDF(s Statement, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.AddPage()

	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Account Statement")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, "Period: "+s.From.Format(dateLayout)+" to "+s.To.Format(dateLayout))
	pdf.Ln(5)
	pdf.Cell(0, 6, "Account: "+MaskAccountNumber(s.Account.AccountNumber)+" ("+s.Account.AccountType+", "+s.Account.Currency+")")
	pdf.Ln(10)

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFillColor(248, 248, 248)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 11)

	sumW := []float64{45.5, 45.5, 45.5, 45.5}
	pdf.CellFormat(sumW[0], 10, "Opening", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[1], 10, "Credits", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[2], 10, "Debits", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[3], 10, "Closing", "1", 1, "C", true, 0, "")

	opening, closing := "-", "-"
	if s.HasActivity() {
		opening, closing = money.Format(s.Opening), money.Format(s.Closing)
	}
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(sumW[0], 10, opening, "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[1], 10, money.Format(s.Credits), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[2], 10, money.Format(s.Debits), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[3], 10, closing, "1", 1, "C", false, 0, "")
	pdf.Ln(6)

	tableHeader(pdf)
	if !s.HasActivity() {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 8, "No activity in this period", "1", 1, "C", false, 0, "")
	}

	for _, it := range s.Items {
		if pdf.GetY() > 270 {
			pdf.AddPage()
			tableHeader(pdf)
		}

		pdf.CellFormat(colW[0], 8, it.CreatedAt.Format(dateLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW[1], 8, typeLabel(it.Type), "1", 0, "C", false, 0, "")

		x, y := pdf.GetX(), pdf.GetY()
		pdf.MultiCell(colW[2], 8, trimTo(it.Description, 60), "1", "L", false)
		usedH := pdf.GetY() - y
		pdf.SetXY(x+colW[2], y)

		pdf.CellFormat(colW[3], usedH, money.Format(signed(it)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colW[4], usedH, money.Format(it.BalanceAfter), "1", 1, "R", false, 0, "")
	}
	if s.Truncated() {
		pdf.SetFont("Helvetica", "I", 9)
		note := fmt.Sprintf("Showing the first %d of %d transactions; totals cover the whole period", len(s.Items), s.Count)
		pdf.CellFormat(0, 8, note, "1", 1, "C", false, 0, "")
	}

	pdf.SetY(-18)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 10, "Generated "+generatedAt.Format(time.RFC3339), "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func tableHeader(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(245, 245, 245)
	pdf.SetTextColor(20, 20, 20)
	pdf.CellFormat(colW[0], 8, "DATE", "1", 0, "C", true, 0, "")
	pdf.CellFormat(colW[1], 8, "TYPE", "1", 0, "C", true, 0, "")
	pdf.CellFormat(colW[2], 8, "DESCRIPTION", "1", 0, "L", true, 0, "")
	pdf.CellFormat(colW[3], 8, "AMOUNT", "1", 0, "R", true, 0, "")
	pdf.CellFormat(colW[4], 8, "BALANCE", "1", 1, "R", true, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(30, 30, 30)
}

func typeLabel(t string) string {
	switch t {
	case domain.TxTransferIn:
		return "TRANSFER IN"
	case domain.TxTransferOut:
		return "TRANSFER OUT"
	default:
		return strings.ToUpper(t)
	}
}

// MaskAccountNumber keeps only the last four digits.
func MaskAccountNumber(n string) string {
	n = strings.TrimSpace(n)
	if len(n) <= 4 {
		return n
	}
	return strings.Repeat("*", len(n)-4) + n[len(n)-4:]
}

func trimTo(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
