package sqlite

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// timeLayout is fixed width so TEXT columns sort chronologically.
const timeLayout = "2006-01-02 15:04:05.000000000"

// Timestamp stores a UTC instant as TEXT.
type Timestamp time.Time

func (t Timestamp) Value() (driver.Value, error) {
	return time.Time(t).UTC().Format(timeLayout), nil
}

func (t *Timestamp) Scan(value any) error {
	parsed, err := parseTime(value)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// NullTimestamp is a Timestamp that may be NULL.
type NullTimestamp struct {
	Time  time.Time
	Valid bool
}

func (n NullTimestamp) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return Timestamp(n.Time).Value()
}

func (n *NullTimestamp) Scan(value any) error {
	if value == nil {
		*n = NullTimestamp{}
		return nil
	}
	parsed, err := parseTime(value)
	if err != nil {
		return err
	}
	*n = NullTimestamp{Time: parsed, Valid: true}
	return nil
}

// Ptr returns nil for NULL.
func (n NullTimestamp) Ptr() *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

func parseTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		return parseTimeString(v)
	case []byte:
		return parseTimeString(string(v))
	default:
		return time.Time{}, fmt.Errorf("cannot scan type %T into Timestamp", value)
	}
}

func parseTimeString(s string) (time.Time, error) {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as timestamp", s)
}
