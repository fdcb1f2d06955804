package repository

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// dbTime scans DATETIME columns from both drivers: MySQL hands back a
// time.Time (parseTime=true) while SQLite may return text.
type dbTime struct{ T time.Time }

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	time.RFC3339Nano,
}

func (d *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.T = time.Time{}
		return nil
	case time.Time:
		d.T = v.UTC()
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	}
	return fmt.Errorf("unsupported time value %T", src)
}

func (d *dbTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.T = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("unparseable time %q", s)
}

// nullTime is dbTime for nullable columns.
type nullTime struct {
	T     time.Time
	Valid bool
}

func (n *nullTime) Scan(src any) error {
	if src == nil {
		n.T, n.Valid = time.Time{}, false
		return nil
	}
	var d dbTime
	if err := d.Scan(src); err != nil {
		return err
	}
	n.T, n.Valid = d.T, true
	return nil
}

// sqlTime formats t as UTC text that both drivers store and compare alike.
func sqlTime(t time.Time) driver.Value { return t.UTC().Format("2006-01-02 15:04:05") }
