package domain

// ConfirmFunc is asked before a destructive cascade. It receives the number of shifts
// that would be removed and answers whether to go ahead.
type ConfirmFunc func(affectedShifts int) bool

// Confirmed always agrees.
func Confirmed(int) bool { return true }

// Declined never agrees.
func Declined(int) bool { return false }
