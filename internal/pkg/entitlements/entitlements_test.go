package entitlements

import "testing"

func TestNormalizePlan(t *testing.T) {
	tests := []struct {
		input string
		want  Plan
	}{
		{"BASE", PlanBase},
		{"base", PlanBase},
		{" pro ", PlanPro},
		{"PRO_PLUS", PlanProPlus},
		{"pro_plus", PlanProPlus},
		{"", ""},
		{"ENTERPRISE", ""},
	}
	for _, tt := range tests {
		if got := NormalizePlan(tt.input); got != tt.want {
			t.Fatalf("NormalizePlan(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMonthlyCreditsDefaults(t *testing.T) {
	tests := []struct {
		plan Plan
		want int
	}{
		{PlanBase, 20},
		{PlanPro, 60},
		{PlanProPlus, 120},
		{"", 0},
	}
	for _, tt := range tests {
		if got := MonthlyCredits(tt.plan); got != tt.want {
			t.Fatalf("MonthlyCredits(%q) = %d, want %d", tt.plan, got, tt.want)
		}
	}
}

func TestMonthlyCreditsEnvOverride(t *testing.T) {
	t.Setenv("PLAN_PRO_CREDITS", "75")
	if got := MonthlyCredits(PlanPro); got != 75 {
		t.Fatalf("expected override 75, got %d", got)
	}

	t.Setenv("PLAN_PRO_CREDITS", "not-a-number")
	if got := MonthlyCredits(PlanPro); got != 60 {
		t.Fatalf("expected default 60 for invalid override, got %d", got)
	}
}

func TestExtraPackCredits(t *testing.T) {
	if got := ExtraPackCredits(); got != 20 {
		t.Fatalf("expected default 20, got %d", got)
	}

	t.Setenv("EXTRA_PACK_CREDITS", "40")
	if got := ExtraPackCredits(); got != 40 {
		t.Fatalf("expected override 40, got %d", got)
	}
}
