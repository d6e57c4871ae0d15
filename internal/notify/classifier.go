package notify

import "fmt"

// Tier classifies how close a contract is to its renewal date.
type Tier string

const (
	TierOverdue  Tier = "OVERDUE"
	TierUrgent   Tier = "URGENT"
	TierUpcoming Tier = "UPCOMING"
	TierReminder Tier = "REMINDER"
)

// Display colors shared between reminder emails and the weekly digest.
const (
	colorRed   = "#dc2626"
	colorAmber = "#f59e0b"
	colorBlue  = "#3b82f6"
)

// Classification carries the urgency tier plus display metadata for a reminder.
type Classification struct {
	Tier    Tier
	Color   string
	Message string
}

// Classify maps days-until-renewal to an urgency tier. Total over all
// integers; daysUntil may be negative for overdue contracts.
//
// Boundaries: <0 overdue, 0-7 urgent, 8-30 upcoming, >30 reminder.
func Classify(companyName string, daysUntil int) Classification {
	switch {
	case daysUntil < 0:
		return Classification{
			Tier:    TierOverdue,
			Color:   colorRed,
			Message: fmt.Sprintf("Your contract with %s was due for renewal %d days ago.", companyName, -daysUntil),
		}
	case daysUntil <= 7:
		return Classification{
			Tier:    TierUrgent,
			Color:   colorRed,
			Message: fmt.Sprintf("Your contract with %s is due for renewal in %d days.", companyName, daysUntil),
		}
	case daysUntil <= 30:
		return Classification{
			Tier:    TierUpcoming,
			Color:   colorAmber,
			Message: fmt.Sprintf("Your contract with %s is due for renewal in %d days.", companyName, daysUntil),
		}
	default:
		return Classification{
			Tier:    TierReminder,
			Color:   colorBlue,
			Message: fmt.Sprintf("Your contract with %s is due for renewal in %d days.", companyName, daysUntil),
		}
	}
}

// DigestColor returns the row color for the weekly digest. The digest covers
// a single week, so it uses a finer scale than the tier boundaries above:
// everything in a 7-day window is urgent by the main scheme, which would
// paint every row the same.
func DigestColor(daysLeft int) string {
	switch {
	case daysLeft <= 3:
		return colorRed
	case daysLeft <= 7:
		return colorAmber
	default:
		return colorBlue
	}
}
