package library

import "time"

// DaysLate counts whole calendar days between due and returned. Returning on
// or before the due date is zero days late.
func DaysLate(due, returned time.Time) int {
	days := int(civil(returned).Sub(civil(due)).Hours() / 24)
	return max(days, 0)
}

// Fine is DaysLate multiplied by rate. It is never negative.
func Fine(due, returned time.Time, rate int) int {
	return max(DaysLate(due, returned)*rate, 0)
}
