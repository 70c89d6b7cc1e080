package ratelimit

import (
	"fmt"
	"strings"

	"github.com/jon-the-dev/repofleet/internal/githubcli"
)

const (
	coreQuotaClassNameConstant       = "core"
	searchQuotaClassNameConstant     = "search"
	shortfallLineTemplateConstant    = "%s quota short: %d remaining, %d required (resets %s)"
	shortfallResetTimeLayoutConstant = "15:04:05 MST"
	gateAdviceMessageConstant        = "wait for the quota reset, raise the limit with a different token, or narrow the owner list"
	shortfallJoinSeparatorConstant   = "; "
)

// QuotaShortfall records one quota class whose remaining budget is below the estimate.
type QuotaShortfall struct {
	QuotaClass string
	Remaining  int
	Required   int
	ResetAt    string
}

// Describe renders the shortfall as a single diagnostic line.
func (shortfall QuotaShortfall) Describe() string {
	return fmt.Sprintf(shortfallLineTemplateConstant, shortfall.QuotaClass, shortfall.Remaining, shortfall.Required, shortfall.ResetAt)
}

// GateDecision reports whether a planned operation fits the remaining quota.
type GateDecision struct {
	Allowed    bool
	Shortfalls []QuotaShortfall
}

// Advice lists the operator options when the gate blocks.
func (decision GateDecision) Advice() string {
	return gateAdviceMessageConstant
}

// DescribeShortfalls joins every shortfall diagnostic into one line.
func (decision GateDecision) DescribeShortfalls() string {
	shortfallLines := make([]string, 0, len(decision.Shortfalls))
	for _, shortfall := range decision.Shortfalls {
		shortfallLines = append(shortfallLines, shortfall.Describe())
	}
	return strings.Join(shortfallLines, shortfallJoinSeparatorConstant)
}

// EvaluateGate compares a quota snapshot against a request estimate. The
// operation is allowed only when both the core and search windows can absorb
// the projected volume.
func EvaluateGate(snapshot githubcli.RateLimitSnapshot, estimate RequestEstimate) GateDecision {
	var shortfalls []QuotaShortfall
	if estimate.CoreRequests() > snapshot.Core.Remaining {
		shortfalls = append(shortfalls, QuotaShortfall{
			QuotaClass: coreQuotaClassNameConstant,
			Remaining:  snapshot.Core.Remaining,
			Required:   estimate.CoreRequests(),
			ResetAt:    snapshot.Core.ResetAt.Format(shortfallResetTimeLayoutConstant),
		})
	}
	if estimate.SearchRequests > snapshot.Search.Remaining {
		shortfalls = append(shortfalls, QuotaShortfall{
			QuotaClass: searchQuotaClassNameConstant,
			Remaining:  snapshot.Search.Remaining,
			Required:   estimate.SearchRequests,
			ResetAt:    snapshot.Search.ResetAt.Format(shortfallResetTimeLayoutConstant),
		})
	}
	return GateDecision{Allowed: len(shortfalls) == 0, Shortfalls: shortfalls}
}
