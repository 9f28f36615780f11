// Package analytics answers descriptive questions about a bank dataset with SQL.
//
// NewStore copies customers and transactions into an in-memory SQLite
// database. The queries rank top spenders, compare cities, and build the
// monthly, category and age band series used for charts.
package analytics
