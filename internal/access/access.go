package access

import "context"

// FeatureDiseaseLookup is the feature name gating condition lookups.
const FeatureDiseaseLookup = "disease_lookup"

// Decision is the outcome of a feature-access check.
type Decision struct {
	Allowed   bool   `json:"allowed"`
	Remaining int    `json:"remaining"` // -1 when unlimited
	Limit     int    `json:"limit"`     // 0 when unlimited
	Reason    string `json:"reason,omitempty"`
}

// Checker decides whether a user may use a feature and accounts for uses.
//
// Reserve consumes one use only when the limit allows it, as a single atomic
// step, and reports the decision after that use. A denied Reserve consumes
// nothing. Release returns a use taken by Reserve.
type Checker interface {
	Check(ctx context.Context, userID, feature string) (Decision, error)
	Reserve(ctx context.Context, userID, feature string) (Decision, error)
	Release(ctx context.Context, userID, feature string) error
}
