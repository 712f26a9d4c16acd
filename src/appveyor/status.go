package appveyor

import (
	"fmt"
	"time"

	"buildwatch-agent/src/provider"
)

// ParseStatus classifies a raw AppVeyor status. The match is case-sensitive
// and anything unrecognized is Unknown.
func ParseStatus(raw string) provider.Status {
	switch raw {
	case "success":
		return provider.StatusSuccess
	case "failed":
		return provider.StatusFailure
	case "cancelled":
		return provider.StatusStopped
	case "queued", "running":
		return provider.StatusInProgress
	default:
		return provider.StatusUnknown
	}
}

// buildDuration is updated minus started (or created when the build never
// started). A missing endpoint gives zero, as does a clock running backwards.
func buildDuration(started, created, updated *time.Time) time.Duration {
	start := started
	if start == nil {
		start = created
	}
	if start == nil || updated == nil {
		return 0
	}
	d := updated.Sub(*start).Truncate(time.Millisecond)
	if d < 0 {
		return 0
	}
	return d
}

// testsResultText formats job test counts, or "" when no tests ran.
func testsResultText(job detailJob) string {
	if job.TestsCount == 0 {
		return ""
	}
	failed := job.FailedTestsCount
	skipped := job.TestsCount - job.PassedTestsCount - failed
	if skipped < 0 {
		skipped = 0
	}
	if failed == 0 && skipped == 0 {
		return fmt.Sprintf("%d tests", job.TestsCount)
	}
	return fmt.Sprintf("%d tests (%d failed, %d skipped)", job.TestsCount, failed, skipped)
}
