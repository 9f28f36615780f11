package domain

// Gender is the customer's recorded gender code
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// Genders lists the gender alphabet used by the generator
var Genders = []Gender{GenderMale, GenderFemale}

// Customer represents a bank customer created once per run by the generator
type Customer struct {
	CustomerID int    `json:"customer_id" db:"customer_id" validate:"required,min=1"`
	Age        int    `json:"age" db:"age"`
	Gender     Gender `json:"gender" db:"gender" validate:"required"`
	City       string `json:"city" db:"city" validate:"required"`
}

// IsValid checks the fields segmentation relies on. Age is not checked.
func (c Customer) IsValid() bool {
	return c.CustomerID > 0 && c.City != "" && c.Gender != ""
}

// CustomerIndex maps customer_id to its record
type CustomerIndex map[int]Customer

// IndexCustomers builds a lookup by customer_id. The second return value
// is the first duplicated id found, or 0 when ids are unique.
func IndexCustomers(customers []Customer) (CustomerIndex, int) {
	idx := make(CustomerIndex, len(customers))
	for _, c := range customers {
		if _, exists := idx[c.CustomerID]; exists {
			return idx, c.CustomerID
		}
		idx[c.CustomerID] = c
	}
	return idx, 0
}
