package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordTransformIncrementsCounterAndObservesDuration(t *testing.T) {
	m := Get()
	before := testutil.ToFloat64(m.TransformsTotal.WithLabelValues("left"))
	m.RecordTransform("left", 0.002)
	after := testutil.ToFloat64(m.TransformsTotal.WithLabelValues("left"))
	if after != before+1 {
		t.Fatalf("expected counter to increment by 1, got before=%v after=%v", before, after)
	}
}

func TestSetDocumentVersionSetsGauge(t *testing.T) {
	m := Get()
	m.SetDocumentVersion("doc-xyz", 42)
	got := testutil.ToFloat64(m.DocumentVersion.WithLabelValues("doc-xyz"))
	if got != 42 {
		t.Fatalf("expected gauge 42, got %v", got)
	}
}

func TestRecordBatchFlushUpdatesCountersAndGauge(t *testing.T) {
	m := Get()
	beforeFlushed := testutil.ToFloat64(m.BatchesFlushedTotal)
	m.RecordBatchFlush(192, 66.6)
	afterFlushed := testutil.ToFloat64(m.BatchesFlushedTotal)
	if afterFlushed != beforeFlushed+1 {
		t.Fatalf("expected batches flushed to increment, got before=%v after=%v", beforeFlushed, afterFlushed)
	}
	if got := testutil.ToFloat64(m.BatchReductionPercent); got != 66.6 {
		t.Fatalf("expected reduction percent gauge 66.6, got %v", got)
	}
}

func TestSetWebSocketConnectionsSetsGauge(t *testing.T) {
	m := Get()
	m.SetWebSocketConnections(7)
	if got := testutil.ToFloat64(m.WebSocketConnections); got != 7 {
		t.Fatalf("expected 7, got %v", got)
	}
}

func TestGetReturnsSameSingletonInstance(t *testing.T) {
	if Get() != Get() {
		t.Fatal("expected Get to return the same Metrics instance across calls")
	}
}
