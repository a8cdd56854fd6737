package model

import (
	"fmt"
	"time"
)

// QuoteCents computes the charge for occupying a facility from start to
// end at the given hourly rate. The duration is priced exactly — a
// 90 minute booking costs exactly 1.5 × the hourly rate — using integer
// arithmetic on cents and seconds so no floating-point drift can creep
// in. Remainders smaller than a cent round half up.
func QuoteCents(hourlyRateCents int64, start, end time.Time) int64 {
	seconds := int64(end.Sub(start) / time.Second)
	if seconds <= 0 {
		return 0
	}
	return (hourlyRateCents*seconds + 1800) / 3600
}

// FormatCents renders an amount in cents as a decimal string, e.g.
// 15000 -> "150.00". Negative amounts carry a leading minus sign.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
