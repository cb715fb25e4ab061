package core

import "time"

// CreatedAtLayout is how created_at is persisted and exported: wall time in WIB.
const CreatedAtLayout = "2006-01-02 15:04:05"

// Jakarta is the business timezone for created_at stamps (WIB, UTC+7).
var Jakarta = loadJakarta()

func loadJakarta() *time.Location {
	if loc, err := time.LoadLocation("Asia/Jakarta"); err == nil {
		return loc
	}
	return time.FixedZone("WIB", 7*60*60)
}

// Clock yields the current instant. Stores take one so tests can pin time.
type Clock func() time.Time

// WIBClock returns the current time in Asia/Jakarta truncated to seconds.
func WIBClock() time.Time {
	return time.Now().In(Jakarta).Truncate(time.Second)
}

// FormatCreatedAt renders t as WIB wall time.
func FormatCreatedAt(t time.Time) string {
	return t.In(Jakarta).Format(CreatedAtLayout)
}

// ParseCreatedAt reads a persisted created_at back into a WIB time.
func ParseCreatedAt(s string) (time.Time, error) {
	return time.ParseInLocation(CreatedAtLayout, s, Jakarta)
}
