package utils

import (
	"fmt"
	"time"
)

const idLayout = "20060102150405"

// TimestampID builds a record id from the wall clock, e.g. "CUST20260417093015".
// With micro set the microseconds are appended so two sales in the same
// second still get different ids.
func TimestampID(prefix string, t time.Time, micro bool) string {
	id := prefix + t.Format(idLayout)
	if micro {
		id += fmt.Sprintf("%06d", t.Nanosecond()/int(time.Microsecond))
	}
	return id
}

// UniqueID returns base when it is free, otherwise the first free "base-N".
// Timestamp ids collide when two records are created within one tick.
func UniqueID(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if !taken(candidate) {
			return candidate
		}
	}
}
