// Package dataprocessing loads bank datasets and checks their quality.
//
// Loader reads customers.csv and transactions.csv, or a workbook with
// Customers and Transactions sheets. Columns are matched by header name, so
// column order is free and extra columns are ignored. Malformed cells fail with
// a parsing error that carries the line and column.
//
//	loader := dataprocessing.NewLoader(logger)
//	customers, err := loader.LoadCustomers(paths.CustomersPath())
//	if err != nil {
//	    return err
//	}
//
// Inspector validates records against their struct tags and reports
// duplicates, orphan transactions and inactive customers without changing
// anything.
package dataprocessing
