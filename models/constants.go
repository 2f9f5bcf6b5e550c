package models

// Transaction kinds
const (
	KindIncome  = "income"
	KindExpense = "expense"
)

// Display colors derived from kind. Stored colors are always recomputed from
// the kind and never taken from client input.
const (
	ColorIncome  = "#00FF00"
	ColorExpense = "#FF0000"
)

// DefaultEventColor is used for users that never picked a calendar color.
const DefaultEventColor = "#3b82f6"

// IsValidKind reports whether kind is income or expense.
func IsValidKind(kind string) bool {
	return kind == KindIncome || kind == KindExpense
}

// ColorForKind returns the display color for a transaction kind.
func ColorForKind(kind string) string {
	if kind == KindIncome {
		return ColorIncome
	}
	return ColorExpense
}
