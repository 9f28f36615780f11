package dataprocessing

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "bankcli/internal/errors"
	"bankcli/internal/infrastructure"
	"bankcli/pkg/contracts/domain"
)

// Column names of the dataset files, in file order
var (
	CustomerColumns    = []string{"customer_id", "age", "gender", "city"}
	TransactionColumns = []string{"transaction_id", "customer_id", "transaction_date", "amount", "category"}
)

// Sheet names searched when loading from a workbook
var (
	customerSheets    = []string{"Customers", "customers"}
	transactionSheets = []string{"Transactions", "transactions"}
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Loader reads customer and transaction records from CSV files or an XLSX workbook
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a dataset loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: infrastructure.WithComponent(logger, infrastructure.ComponentLoader)}
}

// LoadCustomers reads a customers CSV file
func (l *Loader) LoadCustomers(path string) ([]domain.Customer, error) {
	rows, err := l.readCSV(path)
	if err != nil {
		return nil, err
	}
	customers, err := ParseCustomerRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	l.logger.Info("customers loaded", slog.String("file", path), slog.Int("rows", len(customers)))
	return customers, nil
}

// LoadTransactions reads a transactions CSV file
func (l *Loader) LoadTransactions(path string) ([]domain.Transaction, error) {
	rows, err := l.readCSV(path)
	if err != nil {
		return nil, err
	}
	txs, err := ParseTransactionRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	l.logger.Info("transactions loaded", slog.String("file", path), slog.Int("rows", len(txs)))
	return txs, nil
}

// LoadWorkbook reads both tables from an XLSX workbook with Customers and
// Transactions sheets, such as the one written by the exporter.
func (l *Loader) LoadWorkbook(path string) ([]domain.Customer, []domain.Transaction, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, apperrors.NewNotFoundError(path)
		}
		return nil, nil, apperrors.NewParsingError("failed to open workbook", err).WithContext("file", path)
	}
	defer f.Close()

	customerRows, err := findSheet(f, customerSheets)
	if err != nil {
		return nil, nil, err
	}
	transactionRows, err := findSheet(f, transactionSheets)
	if err != nil {
		return nil, nil, err
	}

	customers, err := ParseCustomerRows(customerRows)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	txs, err := ParseTransactionRows(transactionRows)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	l.logger.Info("workbook loaded",
		slog.String("file", path),
		slog.Int("customers", len(customers)),
		slog.Int("transactions", len(txs)))
	return customers, txs, nil
}

// findSheet returns the rows of the first sheet whose name matches one of names
func findSheet(f *excelize.File, names []string) ([][]string, error) {
	for _, name := range names {
		if rows, err := f.GetRows(name); err == nil {
			return rows, nil
		}
	}
	return nil, apperrors.NewParsingError(fmt.Sprintf("workbook has no %s sheet", names[0]), nil).
		WithContext("sheets", f.GetSheetList())
}

func (l *Loader) readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.NewNotFoundError(path)
		}
		return nil, apperrors.NewStorageError("failed to open file", err).WithContext("file", path)
	}
	defer file.Close()

	rows, err := ReadCSV(file)
	if err != nil {
		return nil, apperrors.NewParsingError("malformed CSV", err).WithContext("file", path)
	}
	return rows, nil
}

// ReadCSV reads all records, ignoring a leading UTF-8 byte order mark
func ReadCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	reader := csv.NewReader(br)
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

// columnIndex maps each wanted column to its position in header.
// Column order in the file is free; extra columns are ignored.
func columnIndex(header []string, wanted []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range wanted {
		if _, ok := idx[col]; !ok {
			return nil, apperrors.NewParsingError(fmt.Sprintf("missing column %q", col), nil).
				WithContext("header", header)
		}
	}
	return idx, nil
}

// row wraps one record with its header mapping and line number for error reporting
type row struct {
	cells []string
	cols  map[string]int
	line  int
}

func (r row) text(col string) (string, error) {
	i := r.cols[col]
	if i >= len(r.cells) || strings.TrimSpace(r.cells[i]) == "" {
		return "", r.fail(col, "missing value", nil)
	}
	return strings.TrimSpace(r.cells[i]), nil
}

func (r row) integer(col string) (int, error) {
	s, err := r.text(col)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		// pandas writes integer columns with missing values as floats
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, r.fail(col, "not an integer", err)
		}
		v = int(f)
	}
	return v, nil
}

func (r row) number(col string) (float64, error) {
	s, err := r.text(col)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, r.fail(col, "not a number", err)
	}
	return v, nil
}

func (r row) day(col string) (time.Time, error) {
	s, err := r.text(col)
	if err != nil {
		return time.Time{}, err
	}
	// accept a trailing time component as written by datetime columns
	if len(s) > len(domain.DateLayout) {
		s = s[:len(domain.DateLayout)]
	}
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, r.fail(col, "not a YYYY-MM-DD date", err)
	}
	return d, nil
}

func (r row) fail(col, msg string, cause error) error {
	return apperrors.NewParsingError(fmt.Sprintf("line %d column %s: %s", r.line, col, msg), cause).
		WithContext("line", r.line).
		WithContext("column", col)
}

// ParseCustomerRows converts a header row plus records into customers
func ParseCustomerRows(rows [][]string) ([]domain.Customer, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewParsingError("customers table is empty", nil)
	}
	cols, err := columnIndex(rows[0], CustomerColumns)
	if err != nil {
		return nil, err
	}

	customers := make([]domain.Customer, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		if blank(cells) {
			continue
		}
		r := row{cells: cells, cols: cols, line: i + 2}

		var c domain.Customer
		if c.CustomerID, err = r.integer("customer_id"); err != nil {
			return nil, err
		}
		if c.Age, err = r.integer("age"); err != nil {
			return nil, err
		}
		gender, err := r.text("gender")
		if err != nil {
			return nil, err
		}
		c.Gender = domain.Gender(gender)
		if c.City, err = r.text("city"); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, nil
}

// ParseTransactionRows converts a header row plus records into transactions
func ParseTransactionRows(rows [][]string) ([]domain.Transaction, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewParsingError("transactions table is empty", nil)
	}
	cols, err := columnIndex(rows[0], TransactionColumns)
	if err != nil {
		return nil, err
	}

	txs := make([]domain.Transaction, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		if blank(cells) {
			continue
		}
		r := row{cells: cells, cols: cols, line: i + 2}

		var tx domain.Transaction
		if tx.TransactionID, err = r.integer("transaction_id"); err != nil {
			return nil, err
		}
		if tx.CustomerID, err = r.integer("customer_id"); err != nil {
			return nil, err
		}
		if tx.TransactionDate, err = r.day("transaction_date"); err != nil {
			return nil, err
		}
		if tx.Amount, err = r.number("amount"); err != nil {
			return nil, err
		}
		category, err := r.text("category")
		if err != nil {
			return nil, err
		}
		tx.Category = domain.Category(category)
		txs = append(txs, tx)
	}
	return txs, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
