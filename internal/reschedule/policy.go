package reschedule

import "github.com/zulandar/replan/internal/models"

// Policy is the closed set of completion-propagation behaviors. Keeping it
// a distinct type forces every dispatch site to handle all variants.
type Policy int

const (
	// PolicySecure shifts every dependent by the day difference in both
	// directions: a rigid chain.
	PolicySecure Policy = iota
	// PolicyStandard shifts dependents only on late completion; early
	// finishes never compress downstream work.
	PolicyStandard
	// PolicyAuto replans the full transitive dependent set with
	// capacity-aware placement.
	PolicyAuto
)

// String returns the persisted form of the policy.
func (p Policy) String() string {
	switch p {
	case PolicySecure:
		return models.PolicySecure
	case PolicyAuto:
		return models.PolicyAuto
	default:
		return models.PolicyStandard
	}
}

// ParsePolicy maps a task's stored schedule policy to a Policy. Unknown
// values are a ValidationError, not a silent default.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case models.PolicySecure:
		return PolicySecure, nil
	case models.PolicyAuto:
		return PolicyAuto, nil
	case models.PolicyStandard, "":
		return PolicyStandard, nil
	default:
		return 0, &ValidationError{Field: "schedulePolicy", Reason: "unknown policy " + s}
	}
}
