package deadline

import (
	"math"
	"time"
)

// Policy describes the deadline configuration of a deliverable.
type Policy struct {
	Deadline       time.Time
	AllowLate      bool
	PenaltyPerHour float64
}

// Assessment captures the lateness outcome fixed at submission time.
// It is computed once, when the submission is accepted, and never
// re-derived as the clock advances.
type Assessment struct {
	IsLate        bool
	HoursLate     int
	PenaltyPoints float64
}

// IsExpired reports whether the deadline has passed at the given instant.
func IsExpired(p Policy, now time.Time) bool {
	return now.After(p.Deadline)
}

// CanSubmit reports whether a new submission may still be accepted. Once a
// deadline without late allowance has passed this is permanently false.
func CanSubmit(p Policy, now time.Time) bool {
	return !IsExpired(p, now) || p.AllowLate
}

// Assess computes lateness and penalty for a submission made at submittedAt.
// Lateness is rounded up to whole hours, so even a one-second overrun incurs
// the first penalty unit.
func Assess(p Policy, submittedAt time.Time) Assessment {
	if !submittedAt.After(p.Deadline) {
		return Assessment{}
	}

	hours := int(math.Ceil(submittedAt.Sub(p.Deadline).Hours()))
	if hours < 1 {
		hours = 1
	}

	penalty := float64(hours) * p.PenaltyPerHour
	if penalty < 0 {
		penalty = 0
	}

	return Assessment{
		IsLate:        true,
		HoursLate:     hours,
		PenaltyPoints: penalty,
	}
}
