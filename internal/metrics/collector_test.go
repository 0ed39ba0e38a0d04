package metrics

import (
	"errors"
	"testing"
	"time"
)

func TestRecordTimingAggregates(t *testing.T) {
	c := NewCollector()

	c.RecordTiming(OpEmbed, 100*time.Millisecond)
	c.RecordTiming(OpEmbed, 300*time.Millisecond)
	c.RecordTiming(OpEmbed, 200*time.Millisecond)

	snap := c.Snapshot()
	if snap.Embed == nil {
		t.Fatal("embed snapshot is nil")
	}
	if snap.Embed.Count != 3 {
		t.Errorf("count = %d, want 3", snap.Embed.Count)
	}
	if snap.Embed.TotalTimeMs != 600 {
		t.Errorf("total = %dms, want 600", snap.Embed.TotalTimeMs)
	}
	if snap.Embed.AvgTimeMs != 200 {
		t.Errorf("avg = %fms, want 200", snap.Embed.AvgTimeMs)
	}
	if snap.Embed.MinTimeMs != 100 {
		t.Errorf("min = %dms, want 100", snap.Embed.MinTimeMs)
	}
	if snap.Embed.MaxTimeMs != 300 {
		t.Errorf("max = %dms, want 300", snap.Embed.MaxTimeMs)
	}
}

func TestSnapshotOmitsUnusedOperations(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpSearch, 50*time.Millisecond)

	snap := c.Snapshot()
	if snap.Search == nil {
		t.Error("search snapshot is nil")
	}
	for name, op := range map[string]*OperationSnapshot{
		"fetch": snap.Fetch, "render": snap.Render, "embed": snap.Embed, "upsert": snap.Upsert,
	} {
		if op != nil {
			t.Errorf("%s snapshot = %+v, want nil for unused op", name, op)
		}
	}
}

func TestTimePassesThroughError(t *testing.T) {
	c := NewCollector()
	opErr := errors.New("op failed")

	if err := c.Time(OpFetch, func() error { return opErr }); !errors.Is(err, opErr) {
		t.Errorf("Time returned %v, want the op error", err)
	}

	snap := c.Snapshot()
	if snap.Fetch == nil || snap.Fetch.Count != 1 {
		t.Errorf("fetch snapshot = %+v, want one recorded timing", snap.Fetch)
	}
}
