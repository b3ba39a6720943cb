// Package threshold decides the terminal disposition of an execution from its
// record counts. The tolerated failure percentage comes from the effective
// batch settings of the job, so the policy is constructed per run.
package threshold

// Policy evaluates the failed share of an execution against the tolerated
// percentage.
type Policy interface {
	// Exceeded reports whether errorCount out of totalCount strictly exceeds
	// the tolerated percentage. An execution with no records never exceeds.
	Exceeded(errorCount, totalCount int) bool
	// Percent returns the tolerated percentage.
	Percent() float64
}

// NewPolicy creates a policy tolerating the given failure percentage, 0 to
// 100. Zero is zero tolerance: a single failed record exceeds it.
func NewPolicy(percent int) Policy {
	return &defaultPolicy{percent: percent}
}

type defaultPolicy struct {
	percent int
}

// Exceeded compares in integer space, so a failure share exactly at the
// threshold is tolerated and no rounding is involved.
func (p *defaultPolicy) Exceeded(errorCount, totalCount int) bool {
	if totalCount <= 0 {
		return false
	}
	return errorCount*100 > p.percent*totalCount
}

func (p *defaultPolicy) Percent() float64 {
	return float64(p.percent)
}

// FailureRatePercent is the observed failure percentage, for logs and the
// execution summary.
func FailureRatePercent(errorCount, totalCount int) float64 {
	if totalCount <= 0 {
		return 0
	}
	return float64(errorCount) * 100 / float64(totalCount)
}

// Verify interfaces
var _ Policy = (*defaultPolicy)(nil)
