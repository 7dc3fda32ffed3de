package entitlements

import (
	"strconv"
	"strings"

	"github.com/pdfcorretor/pdfcorretor/internal/pkg/env"
)

type Plan string

const (
	PlanBase    Plan = "BASE"
	PlanPro     Plan = "PRO"
	PlanProPlus Plan = "PRO_PLUS"
)

// Default monthly proposal credits per plan.
const (
	defaultBaseCredits    = 20
	defaultProCredits     = 60
	defaultProPlusCredits = 120
)

// defaultExtraPackCredits is the credit count of one purchasable
// extra pack.
const defaultExtraPackCredits = 20

// NormalizePlan maps arbitrary input to a known plan; unknown input
// yields the empty plan.
func NormalizePlan(plan string) Plan {
	switch strings.ToUpper(strings.TrimSpace(plan)) {
	case string(PlanBase):
		return PlanBase
	case string(PlanPro):
		return PlanPro
	case string(PlanProPlus):
		return PlanProPlus
	default:
		return ""
	}
}

// IsValidPlan reports whether plan names a sold plan.
func IsValidPlan(plan string) bool {
	return NormalizePlan(plan) != ""
}

// MonthlyCredits returns the monthly proposal credit entitlement for a
// plan. Entitlements can change between billing cycles, so renewals must
// re-read this instead of trusting the stored limit.
func MonthlyCredits(plan Plan) int {
	switch plan {
	case PlanBase:
		return envCredits("PLAN_BASE_CREDITS", defaultBaseCredits)
	case PlanPro:
		return envCredits("PLAN_PRO_CREDITS", defaultProCredits)
	case PlanProPlus:
		return envCredits("PLAN_PRO_PLUS_CREDITS", defaultProPlusCredits)
	default:
		return 0
	}
}

// ExtraPackCredits returns the credits granted per extra-pack purchase.
func ExtraPackCredits() int {
	return envCredits("EXTRA_PACK_CREDITS", defaultExtraPackCredits)
}

func envCredits(key string, def int) int {
	raw := strings.TrimSpace(env.GetEnv(key, ""))
	if raw == "" {
		return def
	}
	if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
		return v
	}
	return def
}
