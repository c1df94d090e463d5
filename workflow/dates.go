package workflow

import "time"

// dayLayout is the canonical vote-date representation: a UTC calendar
// day. All date matching in the workflow happens at this granularity.
const dayLayout = "2006-01-02"

// DayKey reduces a timestamp to its UTC calendar day.
func DayKey(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// ParseDay accepts RFC3339 or a handful of common date layouts and
// returns the UTC calendar day. Time-of-day is discarded, so a
// timestamp anywhere within a candidate day matches that day.
func ParseDay(s string) (string, error) {
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		layouts := []string{dayLayout, "2006-01-02 15:04", "2006-01-02 15:04:05"}
		for _, layout := range layouts {
			if t, e := time.Parse(layout, s); e == nil {
				parsed = t
				err = nil
				break
			}
		}
		if err != nil {
			return "", err
		}
	}
	return DayKey(parsed), nil
}
