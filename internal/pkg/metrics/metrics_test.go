package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordJobRunSplitsByStatus(t *testing.T) {
	before := testutil.ToFloat64(jobRuns.WithLabelValues("flush", "error"))

	RecordJobRun("flush", errors.New("boom"), time.Millisecond)
	RecordJobRun("flush", nil, time.Millisecond)

	if got := testutil.ToFloat64(jobRuns.WithLabelValues("flush", "error")); got != before+1 {
		t.Fatalf("expected one more error run, got %v (before %v)", got, before)
	}
}

func TestRecordChainTransaction(t *testing.T) {
	before := testutil.ToFloat64(chainTransactions.WithLabelValues("known"))
	RecordChainTransaction("known")
	RecordChainTransaction("known")

	if got := testutil.ToFloat64(chainTransactions.WithLabelValues("known")); got != before+2 {
		t.Fatalf("expected +2 known, got %v (before %v)", got, before)
	}
}

func TestRecordLedgerDropped(t *testing.T) {
	before := testutil.ToFloat64(ledgerDropped.WithLabelValues("TapReward"))
	RecordLedgerDropped("TapReward")

	if got := testutil.ToFloat64(ledgerDropped.WithLabelValues("TapReward")); got != before+1 {
		t.Fatalf("expected one more dropped entry, got %v (before %v)", got, before)
	}
}
