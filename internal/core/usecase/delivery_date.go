package usecase

import (
	"strconv"
	"time"
)

const deliveryDateLayout = "2006-01-02"

// ResolveDeliveryDate picks the next plausible calendar date for a day token.
// A valid day (1..31) lands in the current month, or the next one when it has
// already passed; anything else means tomorrow. The day is clamped to the
// month's last day without rolling further.
func ResolveDeliveryDate(token string, now time.Time) time.Time {
	year, month, today := now.Date()

	day, ok := parseDayToken(token)
	if ok {
		if day < today {
			month++
			if month > time.December {
				month = time.January
				year++
			}
		}
	} else {
		year, month, day = now.AddDate(0, 0, 1).Date()
	}

	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, now.Location())
}

func FormatDeliveryDate(t time.Time) string {
	return t.Format(deliveryDateLayout)
}

func parseDayToken(token string) (int, bool) {
	if !dayTokenPattern.MatchString(token) {
		return 0, false
	}
	day, err := strconv.Atoi(token)
	if err != nil || day < 1 || day > 31 {
		return 0, false
	}
	return day, true
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
