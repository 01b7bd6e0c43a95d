// Package formation decides whether students may create, join, or leave
// groups for a project, and whether a group's size is compliant. Every
// predicate is evaluated fresh against the state passed in; nothing is
// cached between calls.
package formation

import "time"

// Method is the policy governing who may alter group membership.
type Method string

const (
	// MethodManual means the teacher assigns groups by hand.
	MethodManual Method = "manual"
	// MethodFree lets students form groups themselves.
	MethodFree Method = "free"
	// MethodRandom means the system assigns groups.
	MethodRandom Method = "random"
)

// Config holds the formation-relevant fields of a project.
type Config struct {
	Method   Method
	MinSize  int
	MaxSize  int
	Deadline *time.Time
}

// Open reports whether the formation window is still open. An unset
// deadline keeps it open indefinitely; the deadline instant itself is
// inclusive.
func (c Config) Open(now time.Time) bool {
	return c.Deadline == nil || !now.After(*c.Deadline)
}

// CanCreateGroup reports whether a student without a group may start a new
// one. Under manual and random formation membership is owned by the teacher
// or the system, so student-initiated mutation is never authorized.
func CanCreateGroup(cfg Config, hasGroup bool, now time.Time) bool {
	return cfg.Method == MethodFree && cfg.Open(now) && !hasGroup
}

// CanJoinGroup shares the eligibility gate with CanCreateGroup. Capacity of
// the target group is the caller's check, against cfg.MaxSize.
func CanJoinGroup(cfg Config, hasGroup bool, now time.Time) bool {
	return CanCreateGroup(cfg, hasGroup, now)
}

// CanModifyGroup reports whether a student may leave or edit their current
// group.
func CanModifyGroup(cfg Config, hasGroup bool, now time.Time) bool {
	return cfg.Method == MethodFree && cfg.Open(now) && hasGroup
}

// Compliance flags a group whose size falls outside the configured bounds.
// The flags are advisory: an out-of-range group may exist (a member leaving
// can shrink a group below the minimum) and the caller decides what to do.
type Compliance struct {
	UnderSized bool `json:"under_sized"`
	OverSized  bool `json:"over_sized"`
}

// SizeCompliance reports whether a group of memberCount members is within
// the project's size bounds.
func SizeCompliance(cfg Config, memberCount int) Compliance {
	return Compliance{
		UnderSized: memberCount < cfg.MinSize,
		OverSized:  memberCount > cfg.MaxSize,
	}
}
