package formation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func freeConfig(deadline *time.Time) Config {
	return Config{Method: MethodFree, MinSize: 2, MaxSize: 4, Deadline: deadline}
}

func TestFreeFormationPredicates(t *testing.T) {
	cfg := freeConfig(nil)

	require.True(t, CanCreateGroup(cfg, false, now))
	require.True(t, CanJoinGroup(cfg, false, now))
	require.False(t, CanModifyGroup(cfg, false, now))

	require.False(t, CanCreateGroup(cfg, true, now))
	require.False(t, CanJoinGroup(cfg, true, now))
	require.True(t, CanModifyGroup(cfg, true, now))
}

func TestManualAndRandomFormationNeverAuthorizeStudents(t *testing.T) {
	future := now.Add(24 * time.Hour)

	for _, method := range []Method{MethodManual, MethodRandom} {
		t.Run(string(method), func(t *testing.T) {
			cfg := Config{Method: method, MinSize: 2, MaxSize: 4, Deadline: &future}

			for _, hasGroup := range []bool{false, true} {
				require.False(t, CanCreateGroup(cfg, hasGroup, now))
				require.False(t, CanJoinGroup(cfg, hasGroup, now))
				require.False(t, CanModifyGroup(cfg, hasGroup, now))
			}
		})
	}
}

func TestFormationDeadlineGate(t *testing.T) {
	past := now.Add(-time.Minute)
	exact := now
	future := now.Add(time.Minute)

	testCases := []struct {
		name     string
		deadline *time.Time
		expected bool
	}{
		{"no deadline configured", nil, true},
		{"deadline in the future", &future, true},
		{"deadline exactly now is inclusive", &exact, true},
		{"deadline one minute in the past", &past, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := freeConfig(tc.deadline)
			require.Equal(t, tc.expected, CanCreateGroup(cfg, false, now))
			require.Equal(t, tc.expected, CanJoinGroup(cfg, false, now))
			require.Equal(t, tc.expected, CanModifyGroup(cfg, true, now))
		})
	}
}

func TestSizeCompliance(t *testing.T) {
	cfg := freeConfig(nil)

	testCases := []struct {
		name     string
		members  int
		expected Compliance
	}{
		{"single member is under-sized", 1, Compliance{UnderSized: true}},
		{"minimum size is compliant", 2, Compliance{}},
		{"middle of the range", 3, Compliance{}},
		{"maximum size is compliant", 4, Compliance{}},
		{"five members is over-sized", 5, Compliance{OverSized: true}},
		{"empty group is under-sized", 0, Compliance{UnderSized: true}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, SizeCompliance(cfg, tc.members))
		})
	}
}
