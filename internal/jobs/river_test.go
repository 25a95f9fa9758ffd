package jobs

import (
	"testing"
	"time"

	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicyBackoffDoubles(t *testing.T) {
	policy := NewRetryPolicy()
	attempted := time.Now()

	first := policy.NextRetry(&rivertype.JobRow{Kind: JobKindReconcileSweep, Attempt: 1, AttemptedAt: &attempted})
	second := policy.NextRetry(&rivertype.JobRow{Kind: JobKindReconcileSweep, Attempt: 2, AttemptedAt: &attempted})

	require.Equal(t, attempted.Add(1*time.Minute), first)
	require.Equal(t, attempted.Add(2*time.Minute), second)
}

func TestRetryPolicyCapsAtMaxDelay(t *testing.T) {
	policy := NewRetryPolicy()
	attempted := time.Now()

	late := policy.NextRetry(&rivertype.JobRow{Kind: JobKindReconcileSweep, Attempt: 20, AttemptedAt: &attempted})
	require.Equal(t, attempted.Add(1*time.Hour), late)
}

func TestRetryPolicyUnknownKindUsesDefault(t *testing.T) {
	policy := NewRetryPolicy()
	attempted := time.Now()

	next := policy.NextRetry(&rivertype.JobRow{Kind: "mystery", Attempt: 1, AttemptedAt: &attempted})
	require.Equal(t, attempted.Add(30*time.Second), next)
}
