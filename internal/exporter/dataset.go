package exporter

import (
	"fmt"

	"bankcli/internal/config"
	"bankcli/pkg/contracts/domain"
)

// DatasetExporter writes generated customers and transactions
type DatasetExporter struct {
	csvWriter *CSVWriter
}

// NewDatasetExporter creates a dataset exporter
func NewDatasetExporter(csvWriter *CSVWriter) *DatasetExporter {
	return &DatasetExporter{csvWriter: csvWriter}
}

// ExportCustomers writes customers.csv under the data directory
func (d *DatasetExporter) ExportCustomers(customers []domain.Customer) error {
	records := make([][]string, len(customers))
	for i, c := range customers {
		records[i] = []string{
			formatInt(c.CustomerID),
			formatInt(c.Age),
			string(c.Gender),
			c.City,
		}
	}
	if err := d.csvWriter.WriteDataCSV(config.CustomersFile, customerHeaders, records); err != nil {
		return fmt.Errorf("export customers: %w", err)
	}
	return nil
}

// ExportTransactions streams transactions.csv under the data directory
func (d *DatasetExporter) ExportTransactions(transactions []domain.Transaction) error {
	stream, err := d.csvWriter.CreateStreamWriter(config.TransactionsFile, transactionHeaders)
	if err != nil {
		return fmt.Errorf("export transactions: %w", err)
	}

	for _, t := range transactions {
		record := []string{
			formatInt(t.TransactionID),
			formatInt(t.CustomerID),
			t.TransactionDate.Format(domain.DateLayout),
			formatAmount(t.Amount),
			string(t.Category),
		}
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return fmt.Errorf("export transaction %d: %w", t.TransactionID, err)
		}
	}
	return stream.Close()
}

// Export writes both tables
func (d *DatasetExporter) Export(customers []domain.Customer, transactions []domain.Transaction) error {
	if err := d.ExportCustomers(customers); err != nil {
		return err
	}
	return d.ExportTransactions(transactions)
}

var (
	customerHeaders    = []string{"customer_id", "age", "gender", "city"}
	transactionHeaders = []string{"transaction_id", "customer_id", "transaction_date", "amount", "category"}
)
