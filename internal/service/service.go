// Package service implements the farm's business operations on top of the repositories.
package service

import "time"

// Clock returns the current time. Services stamp created_at/updated_at with it.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

func clockOrDefault(now Clock) Clock {
	if now == nil {
		return SystemClock
	}
	return now
}

const (
	maxNameLen   = 255
	maxAuthorLen = 255
)
