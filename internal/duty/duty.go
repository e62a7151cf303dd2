// Package duty derives a guard's duty phase from the assignment start time.
package duty

import "time"

// Status is the lifecycle phase of a route assignment.
type Status string

const (
	// StatusUnassigned is produced by callers when a guard has no active assignment.
	StatusUnassigned   Status = "UNASSIGNED"
	StatusActive       Status = "ACTIVE"
	StatusExpiringSoon Status = "EXPIRING_SOON"
	StatusExpired      Status = "EXPIRED"
)

const (
	// DefaultDuration is the length of one duty cycle.
	DefaultDuration = 8 * time.Hour

	// ExpiringWindow is how close to the end a duty counts as expiring soon.
	ExpiringWindow = time.Hour
)

// Info is the result of Calculate.
type Info struct {
	Status    Status        `json:"status"`
	Remaining time.Duration `json:"-"`
}

// TimeRemaining is Remaining split for display.
type TimeRemaining struct {
	Hours        int `json:"hours"`
	Minutes      int `json:"minutes"`
	TotalMinutes int `json:"total_minutes"`
}

// Calculate returns the phase of a duty that started at assignedAt.
// Time is the only input: scans during the shift never extend it.
func Calculate(assignedAt, now time.Time, duration time.Duration) Info {
	if duration <= 0 {
		duration = DefaultDuration
	}

	remaining := duration - now.Sub(assignedAt)
	if remaining < 0 {
		remaining = 0
	}
	// A clock behind assignedAt must not stretch the shift.
	if remaining > duration {
		remaining = duration
	}

	switch {
	case remaining == 0:
		return Info{Status: StatusExpired, Remaining: 0}
	case remaining <= ExpiringWindow:
		return Info{Status: StatusExpiringSoon, Remaining: remaining}
	default:
		return Info{Status: StatusActive, Remaining: remaining}
	}
}

// Breakdown splits Remaining into whole hours and minutes.
func (i Info) Breakdown() TimeRemaining {
	total := int(i.Remaining / time.Minute)
	return TimeRemaining{
		Hours:        total / 60,
		Minutes:      total % 60,
		TotalMinutes: total,
	}
}

// Stats counts guards per status for the dashboard.
type Stats struct {
	Total        int `json:"total"`
	Unassigned   int `json:"unassigned"`
	Active       int `json:"active"`
	ExpiringSoon int `json:"expiring_soon"`
	Expired      int `json:"expired"`
}

func Summarize(statuses []Status) Stats {
	s := Stats{Total: len(statuses)}
	for _, st := range statuses {
		switch st {
		case StatusUnassigned:
			s.Unassigned++
		case StatusActive:
			s.Active++
		case StatusExpiringSoon:
			s.ExpiringSoon++
		case StatusExpired:
			s.Expired++
		}
	}
	return s
}
