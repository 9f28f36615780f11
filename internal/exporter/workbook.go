package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"bankcli/internal/analytics"
	"bankcli/internal/segmentation"
	"bankcli/pkg/contracts/domain"
)

// Workbook sheet names
const (
	SheetSegments     = "Segments"
	SheetAssignments  = "Assignments"
	SheetInactive     = "Inactive"
	SheetTopCustomers = "TopCustomers"
	SheetCities       = "Cities"
	SheetMonthly      = "MonthlyTrend"
	SheetCategories   = "Categories"
	SheetAgeGroups    = "AgeGroups"
	SheetCustomers    = "Customers"
	SheetTransactions = "Transactions"
)

// WorkbookData is everything that can go into the report workbook.
// Nil or empty parts are skipped.
type WorkbookData struct {
	Result       *segmentation.Result
	Overview     *analytics.Overview
	Customers    []domain.Customer
	Transactions []domain.Transaction
}

// WorkbookExporter writes an XLSX workbook with one sheet per table
type WorkbookExporter struct {
	logger *slog.Logger
}

// NewWorkbookExporter creates a workbook exporter
func NewWorkbookExporter(logger *slog.Logger) *WorkbookExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookExporter{logger: logger}
}

// Export writes data to path, replacing any existing file
func (e *WorkbookExporter) Export(path string, data WorkbookData) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	w := &sheetWriter{file: f, header: header}

	if r := data.Result; r != nil {
		w.table(SheetSegments, segmentHeaders, segmentRows(r.Segments))
		w.table(SheetAssignments, assignmentHeaders, assignmentRows(r))
		if len(r.Inactive) > 0 {
			w.table(SheetInactive, []string{"customer_id"}, inactiveRows(r.Inactive))
		}
	}
	if o := data.Overview; o != nil {
		w.table(SheetTopCustomers, []string{"customer_id", "city", "tx_count", "total_spend"}, topCustomerRows(o.TopCustomers))
		w.table(SheetCities, []string{"city", "avg_tx_amount", "total_city_spend"}, cityRows(o.Cities))
		w.table(SheetMonthly, []string{"month", "amount"}, monthlyRows(o.Monthly))
		w.table(SheetCategories, []string{"category", "amount"}, categoryRows(o.Categories))
		w.table(SheetAgeGroups, []string{"age_group", "avg_amount"}, ageGroupRows(o.AgeGroups))
	}
	if len(data.Customers) > 0 {
		w.table(SheetCustomers, customerHeaders, customerRows(data.Customers))
	}
	if len(data.Transactions) > 0 {
		w.stream(SheetTransactions, transactionHeaders, data.Transactions)
	}
	if w.err != nil {
		return w.err
	}
	if len(w.sheets) == 0 {
		return fmt.Errorf("workbook has nothing to write")
	}

	// drop the default sheet created by NewFile
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("remove default sheet: %w", err)
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	e.logger.Info("Workbook written",
		slog.String("file", path),
		slog.Any("sheets", w.sheets))
	return nil
}

// sheetWriter adds sheets and remembers the first error
type sheetWriter struct {
	file   *excelize.File
	header int
	sheets []string
	err    error
}

func (w *sheetWriter) newSheet(name string) bool {
	if w.err != nil {
		return false
	}
	if _, err := w.file.NewSheet(name); err != nil {
		w.err = fmt.Errorf("create sheet %s: %w", name, err)
		return false
	}
	w.sheets = append(w.sheets, name)
	return true
}

// table writes a header row and rows cell by cell
func (w *sheetWriter) table(name string, headers []string, rows [][]interface{}) {
	if !w.newSheet(name) {
		return
	}
	if err := w.file.SetSheetRow(name, "A1", &headers); err != nil {
		w.err = fmt.Errorf("write %s header: %w", name, err)
		return
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := w.file.SetCellStyle(name, "A1", last, w.header); err != nil {
		w.err = fmt.Errorf("style %s header: %w", name, err)
		return
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := w.file.SetSheetRow(name, cell, &row); err != nil {
			w.err = fmt.Errorf("write %s row %d: %w", name, i+2, err)
			return
		}
	}
	if err := w.file.SetPanes(name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		w.err = fmt.Errorf("freeze %s header: %w", name, err)
	}
}

// stream writes transactions through the streaming API, which keeps memory flat
func (w *sheetWriter) stream(name string, headers []string, transactions []domain.Transaction) {
	if !w.newSheet(name) {
		return
	}
	sw, err := w.file.NewStreamWriter(name)
	if err != nil {
		w.err = fmt.Errorf("open %s stream: %w", name, err)
		return
	}

	head := make([]interface{}, len(headers))
	for i, h := range headers {
		head[i] = h
	}
	if err := sw.SetRow("A1", head, excelize.RowOpts{StyleID: w.header}); err != nil {
		w.err = fmt.Errorf("write %s header: %w", name, err)
		return
	}

	for i, t := range transactions {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			t.TransactionID,
			t.CustomerID,
			t.TransactionDate.Format(domain.DateLayout),
			t.Amount,
			string(t.Category),
		}
		if err := sw.SetRow(cell, row); err != nil {
			w.err = fmt.Errorf("write %s row %d: %w", name, i+2, err)
			return
		}
	}
	if err := sw.Flush(); err != nil {
		w.err = fmt.Errorf("flush %s: %w", name, err)
	}
}

func segmentRows(segments []segmentation.Segment) [][]interface{} {
	rows := make([][]interface{}, len(segments))
	for i, s := range segments {
		rows[i] = []interface{}{s.ClusterID, s.Count, s.Share, s.MeanTotalSpend, s.MeanAvgSpend, s.MeanTxCount, s.Label}
	}
	return rows
}

func assignmentRows(r *segmentation.Result) [][]interface{} {
	rows := make([][]interface{}, len(r.Features))
	for i, f := range r.Features {
		rows[i] = []interface{}{f.CustomerID, r.Model.Assignments[i], f.TotalSpend, f.AvgSpend, f.TxCount}
	}
	return rows
}

func inactiveRows(ids []int) [][]interface{} {
	rows := make([][]interface{}, len(ids))
	for i, id := range ids {
		rows[i] = []interface{}{id}
	}
	return rows
}

func topCustomerRows(top []analytics.CustomerSpend) [][]interface{} {
	rows := make([][]interface{}, len(top))
	for i, c := range top {
		rows[i] = []interface{}{c.CustomerID, c.City, c.TxCount, c.TotalSpend}
	}
	return rows
}

func cityRows(cities []analytics.CitySpend) [][]interface{} {
	rows := make([][]interface{}, len(cities))
	for i, c := range cities {
		rows[i] = []interface{}{c.City, c.AvgTxAmount, c.TotalCitySpend}
	}
	return rows
}

func monthlyRows(months []analytics.MonthlySpend) [][]interface{} {
	rows := make([][]interface{}, len(months))
	for i, m := range months {
		rows[i] = []interface{}{m.Month, m.Amount}
	}
	return rows
}

func categoryRows(categories []analytics.CategorySpend) [][]interface{} {
	rows := make([][]interface{}, len(categories))
	for i, c := range categories {
		rows[i] = []interface{}{c.Category, c.Amount}
	}
	return rows
}

func ageGroupRows(groups []analytics.AgeGroupSpend) [][]interface{} {
	rows := make([][]interface{}, len(groups))
	for i, g := range groups {
		rows[i] = []interface{}{g.AgeGroup, g.AvgAmount}
	}
	return rows
}

func customerRows(customers []domain.Customer) [][]interface{} {
	rows := make([][]interface{}, len(customers))
	for i, c := range customers {
		rows[i] = []interface{}{c.CustomerID, c.Age, string(c.Gender), c.City}
	}
	return rows
}
