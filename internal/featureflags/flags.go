package featureflags

import (
	"os"
	"strings"
)

// Flags used by the notification pipeline.
const (
	// PushDelivery enables real FCM delivery for contracts whose owner has a
	// registered device token. Off by default: mobile reminders are recorded
	// without a transport round trip.
	PushDelivery = "push_delivery"
	// ScanOnStart runs a renewal check immediately at startup instead of
	// waiting for the next scheduled fire.
	ScanOnStart = "scan_on_start"
)

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes (case-insensitive).
func Enabled(name string) bool {
	v := os.Getenv("FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
