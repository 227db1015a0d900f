package database

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// sqliteTimeLayout is fixed width so that text comparison orders like time.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z"

// Rebind rewrites '?' placeholders into the driver's bind syntax.
// Repositories write their SQL once with '?' placeholders.
func Rebind(d Driver, query string) string {
	if d != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// TimeArg converts t into the value stored for the driver.
// SQLite columns hold UTC text; Postgres columns are TIMESTAMPTZ.
func TimeArg(d Driver, t time.Time) any {
	if d == DriverSQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}

// NullTimeArg is TimeArg for optional columns.
func NullTimeArg(d Driver, t *time.Time) any {
	if t == nil {
		return nil
	}
	return TimeArg(d, *t)
}

// Time scans a timestamp column stored either natively or as text.
type Time struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner.
func (t *Time) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into database.Time", src)
	}
}

func (t *Time) parse(s string) error {
	for _, layout := range []string{sqliteTimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time, t.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("unrecognized time format %q", s)
}

// Value implements driver.Valuer.
func (t Time) Value() (driver.Value, error) {
	if !t.Valid {
		return nil, nil
	}
	return t.Time.UTC(), nil
}

// Ptr returns a pointer to the time, or nil when the column was NULL.
func (t Time) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
