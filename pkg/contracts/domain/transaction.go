package domain

import (
	"time"
)

// DateLayout is the calendar date format used for transaction_date
const DateLayout = "2006-01-02"

// Category represents a spending category
type Category string

const (
	CategoryMarket     Category = "Market"
	CategoryClothing   Category = "Giyim"
	CategoryElectronic Category = "Elektronik"
	CategoryRestaurant Category = "Restoran"
	CategoryFuel       Category = "Akaryakit"
)

// Categories lists the category alphabet in generator order
var Categories = []Category{
	CategoryMarket,
	CategoryClothing,
	CategoryElectronic,
	CategoryRestaurant,
	CategoryFuel,
}

// Transaction represents a single card transaction
type Transaction struct {
	TransactionID   int       `json:"transaction_id" db:"transaction_id" validate:"required,min=1"`
	CustomerID      int       `json:"customer_id" db:"customer_id" validate:"required,min=1"`
	TransactionDate time.Time `json:"transaction_date" db:"transaction_date"`
	Amount          float64   `json:"amount" db:"amount" validate:"gt=0"`
	Category        Category  `json:"category" db:"category" validate:"required"`
}

// IsValid checks the transaction is well formed on its own.
// Referential integrity against the customer set is checked by the aggregator.
func (t Transaction) IsValid() bool {
	return t.TransactionID > 0 && t.CustomerID > 0 && t.Amount > 0 &&
		!t.TransactionDate.IsZero() && t.Category != ""
}

// Month returns the YYYY-MM period of the transaction
func (t Transaction) Month() string {
	return t.TransactionDate.Format("2006-01")
}

// CustomerTransaction joins a transaction with its customer's attributes
type CustomerTransaction struct {
	Transaction
	Age    int    `json:"age"`
	Gender Gender `json:"gender"`
	City   string `json:"city"`
}

// Join performs a left join of transactions onto customers. Transactions whose
// customer is unknown keep zero-valued customer attributes, matching a left merge.
func Join(transactions []Transaction, customers []Customer) []CustomerTransaction {
	idx, _ := IndexCustomers(customers)
	joined := make([]CustomerTransaction, 0, len(transactions))
	for _, tx := range transactions {
		ct := CustomerTransaction{Transaction: tx}
		if c, ok := idx[tx.CustomerID]; ok {
			ct.Age = c.Age
			ct.Gender = c.Gender
			ct.City = c.City
		}
		joined = append(joined, ct)
	}
	return joined
}
