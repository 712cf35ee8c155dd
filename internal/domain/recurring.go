package domain

import "time"

// ============================================================
// Recurring templates (configuration)
// ============================================================

// FixedExpense is a user-configured recurring expense template. It
// materializes into fixed_expense transactions referencing its id.
type FixedExpense struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	Amount     int64     `json:"amount"`
	DayOfMonth int       `json:"dayOfMonth"`
	CategoryID string    `json:"categoryId,omitempty"`
	Months     []int     `json:"months,omitempty"` // empty means every month
	CreatedAt  time.Time `json:"createdAt,omitempty"`
}

// ExpectedIncome is a user-configured recurring income template.
type ExpectedIncome struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	Amount     int64     `json:"amount"`
	DayOfMonth int       `json:"dayOfMonth"`
	Months     []int     `json:"months,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
}

// AppliesToMonth reports whether a template with the given months filter
// applies to calendar month m (1-12). An absent or empty filter means the
// template applies every month.
func AppliesToMonth(months []int, m int) bool {
	if len(months) == 0 {
		return true
	}
	for _, mm := range months {
		if mm == m {
			return true
		}
	}
	return false
}
