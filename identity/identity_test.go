package identity

import "testing"

func TestParsePlan_FailClosed(t *testing.T) {
	cases := []struct {
		raw  string
		want Plan
	}{
		{"pro", PlanPro},
		{"free", PlanFree},
		{"", PlanFree},
		{"PRO", PlanFree},   // claims are written lowercase; anything else is not pro
		{"admin", PlanFree},
		{"premium", PlanFree},
	}
	for _, tc := range cases {
		if got := ParsePlan(tc.raw); got != tc.want {
			t.Errorf("ParsePlan(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
