package dataprocessing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "bankcli/internal/errors"
	"bankcli/pkg/contracts/domain"
)

const customersCSV = `customer_id,age,gender,city
1001,56,F,Istanbul
1002,69,M,Ankara

1003,46,F,Izmir
`

const transactionsCSV = "\xEF\xBB\xBF" + `transaction_id,customer_id,transaction_date,amount,category
1,1001,2023-06-07,264.55,Market
2,1003,2023-12-31 00:00:00,3120.1,Elektronik
3,1002,2023-01-01,10.0,Restoran
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoader_LoadCustomers(t *testing.T) {
	path := writeFile(t, "customers.csv", customersCSV)

	customers, err := NewLoader(nil).LoadCustomers(path)
	require.NoError(t, err)

	require.Len(t, customers, 3, "blank lines are skipped")
	assert.Equal(t, domain.Customer{CustomerID: 1002, Age: 69, Gender: domain.GenderMale, City: "Ankara"}, customers[1])
}

func TestLoader_LoadTransactions(t *testing.T) {
	path := writeFile(t, "transactions.csv", transactionsCSV)

	txs, err := NewLoader(nil).LoadTransactions(path)
	require.NoError(t, err)

	require.Len(t, txs, 3)
	assert.Equal(t, 1, txs[0].TransactionID, "byte order mark does not leak into the first header")
	assert.Equal(t, time.Date(2023, 6, 7, 0, 0, 0, 0, time.UTC), txs[0].TransactionDate)
	assert.Equal(t, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), txs[1].TransactionDate)
	assert.Equal(t, 3120.1, txs[1].Amount)
	assert.Equal(t, domain.CategoryElectronic, txs[1].Category)
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader(nil).LoadCustomers(filepath.Join(t.TempDir(), "nope.csv"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestParseRows_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		parse   func([][]string) error
		column  string
	}{
		{
			name:    "missing column",
			content: "customer_id,age,city\n1,30,Bursa\n",
			parse:   func(r [][]string) error { _, err := ParseCustomerRows(r); return err },
		},
		{
			name:    "non integer id",
			content: "customer_id,age,gender,city\nabc,30,M,Bursa\n",
			parse:   func(r [][]string) error { _, err := ParseCustomerRows(r); return err },
			column:  "customer_id",
		},
		{
			name:    "empty city",
			content: "customer_id,age,gender,city\n1,30,M,\n",
			parse:   func(r [][]string) error { _, err := ParseCustomerRows(r); return err },
			column:  "city",
		},
		{
			name:    "bad date",
			content: "transaction_id,customer_id,transaction_date,amount,category\n1,1,07/06/2023,10,Market\n",
			parse:   func(r [][]string) error { _, err := ParseTransactionRows(r); return err },
			column:  "transaction_date",
		},
		{
			name:    "bad amount",
			content: "transaction_id,customer_id,transaction_date,amount,category\n1,1,2023-06-07,ten,Market\n",
			parse:   func(r [][]string) error { _, err := ParseTransactionRows(r); return err },
			column:  "amount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ReadCSV(strings.NewReader(tt.content))
			require.NoError(t, err)

			err = tt.parse(rows)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))

			if tt.column != "" {
				var appErr *apperrors.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, tt.column, appErr.Context["column"])
				assert.Equal(t, 2, appErr.Context["line"])
			}
		})
	}
}

func TestParseRows_FloatFormattedIntegers(t *testing.T) {
	rows := [][]string{
		{"Age", "customer_id", "City", "gender", "segment"},
		{"30.0", "1001.0", "Antalya", "F", "ignored"},
	}

	customers, err := ParseCustomerRows(rows)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, 1001, customers[0].CustomerID)
	assert.Equal(t, 30, customers[0].Age)
	assert.Equal(t, "Antalya", customers[0].City)
}

func TestLoader_LoadWorkbook(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), "Customers")
	_, err := f.NewSheet("Transactions")
	require.NoError(t, err)

	require.NoError(t, f.SetSheetRow("Customers", "A1", &[]interface{}{"customer_id", "age", "gender", "city"}))
	require.NoError(t, f.SetSheetRow("Customers", "A2", &[]interface{}{1001, 33, "M", "Bursa"}))
	require.NoError(t, f.SetSheetRow("Transactions", "A1", &[]interface{}{"transaction_id", "customer_id", "transaction_date", "amount", "category"}))
	require.NoError(t, f.SetSheetRow("Transactions", "A2", &[]interface{}{1, 1001, "2023-02-03", 845.2, "Giyim"}))

	path := filepath.Join(t.TempDir(), "dataset.xlsx")
	require.NoError(t, f.SaveAs(path))

	customers, txs, err := NewLoader(nil).LoadWorkbook(path)
	require.NoError(t, err)

	require.Len(t, customers, 1)
	require.Len(t, txs, 1)
	assert.Equal(t, "Bursa", customers[0].City)
	assert.Equal(t, 845.2, txs[0].Amount)
	assert.Equal(t, domain.CategoryClothing, txs[0].Category)
}

func TestLoader_LoadWorkbook_MissingSheet(t *testing.T) {
	f := excelize.NewFile()
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, f.SaveAs(path))

	_, _, err := NewLoader(nil).LoadWorkbook(path)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}
