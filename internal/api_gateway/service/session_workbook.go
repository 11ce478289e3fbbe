package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/shop-backoffice-ledger/internal/domain/ledger"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
)

const sessionSheet = "Caisse"

type summaryLine struct {
	label string
	value decimal.Decimal
}

var entryKindLabels = map[shared.EntryKind]string{
	shared.EntryKindRevenue: "Recette",
	shared.EntryKindExpense: "Dépense",
}

// renderSessionWorkbook writes the totals of the session followed by its
// revenue and expense entries
func renderSessionWorkbook(session *ledger.DailyCashSession, loc *time.Location) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sessionSheet); err != nil {
		return nil, err
	}

	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return nil, err
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	totals := session.Totals
	summary := []summaryLine{
		{"Fond de caisse", totals.OpeningFloat},
		{"Chiffre d'affaires", totals.TotalRevenue},
		{"Coût des ventes", totals.TotalCost},
		{"Marge brute", totals.GrossMargin},
		{"Dépenses", totals.TotalExpense},
		{"Bénéfice net", totals.NetProfit},
		{"Caisse théorique", totals.TheoreticalCash},
	}
	if session.Drift != nil {
		summary = append(summary,
			summaryLine{"Caisse comptée", session.Drift.Counted},
			summaryLine{"Écart", session.Drift.Delta},
		)
	}

	f.SetCellValue(sessionSheet, "A1", "Journée du")
	f.SetCellValue(sessionSheet, "B1", session.DayStart.In(loc).Format("02/01/2006"))
	f.SetCellStyle(sessionSheet, "A1", "A1", boldStyle)

	row := 3
	for _, line := range summary {
		f.SetCellValue(sessionSheet, fmt.Sprintf("A%d", row), line.label)
		f.SetCellValue(sessionSheet, fmt.Sprintf("B%d", row), line.value.InexactFloat64())
		f.SetCellStyle(sessionSheet, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), amountStyle)
		row++
	}

	row++
	headers := []string{"Heure", "Type", "Portefeuille", "Catégorie", "Description", "Montant"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return nil, err
		}
		f.SetCellValue(sessionSheet, cell, h)
		f.SetCellStyle(sessionSheet, cell, cell, boldStyle)
	}

	for _, e := range session.Entries {
		row++
		kind := entryKindLabels[e.Kind]
		if e.IsInternal {
			kind = "Transfert"
		}
		f.SetCellValue(sessionSheet, fmt.Sprintf("A%d", row), e.CreatedAt.In(loc).Format("15:04"))
		f.SetCellValue(sessionSheet, fmt.Sprintf("B%d", row), kind)
		f.SetCellValue(sessionSheet, fmt.Sprintf("C%d", row), e.EffectiveWallet().Label())
		f.SetCellValue(sessionSheet, fmt.Sprintf("D%d", row), e.Category)
		f.SetCellValue(sessionSheet, fmt.Sprintf("E%d", row), e.Description)
		f.SetCellValue(sessionSheet, fmt.Sprintf("F%d", row), e.Amount.InexactFloat64())
		f.SetCellStyle(sessionSheet, fmt.Sprintf("F%d", row), fmt.Sprintf("F%d", row), amountStyle)
	}

	f.SetColWidth(sessionSheet, "A", "A", 20)
	f.SetColWidth(sessionSheet, "B", "D", 14)
	f.SetColWidth(sessionSheet, "E", "E", 40)
	f.SetColWidth(sessionSheet, "F", "F", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write session workbook: %w", err)
	}
	return buf.Bytes(), nil
}
