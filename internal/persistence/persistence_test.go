package persistence

import (
	"fmt"
	"testing"
	"time"
)

func TestBatches(t *testing.T) {
	ids := make([]string, 850)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%d", i)
	}

	batches := Batches(ids, 0)
	if len(batches) != 3 {
		t.Fatalf("Expected 3 batches, got %d", len(batches))
	}
	if len(batches[0]) != 400 || len(batches[1]) != 400 || len(batches[2]) != 50 {
		t.Errorf("Unexpected batch sizes: %d, %d, %d", len(batches[0]), len(batches[1]), len(batches[2]))
	}
	if batches[2][49] != "id-849" {
		t.Errorf("Expected last id id-849, got %s", batches[2][49])
	}

	if got := Batches(nil, 10); len(got) != 0 {
		t.Errorf("Expected no batches for empty input, got %d", len(got))
	}
	if got := Batches(ids, 1000); len(got[0]) != MaxBatchSize {
		t.Errorf("Expected batch size capped at %d, got %d", MaxBatchSize, len(got[0]))
	}
}

func TestTimeLayoutSortsLexically(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	earlier := FormatTime(base)
	later := FormatTime(base.Add(1500 * time.Millisecond))
	if !(earlier < later) {
		t.Errorf("Expected %q < %q", earlier, later)
	}
	if len(earlier) != len(later) {
		t.Errorf("Expected fixed width, got %d and %d", len(earlier), len(later))
	}

	parsed, err := ParseTime(later)
	if err != nil {
		t.Fatalf("ParseTime failed: %v", err)
	}
	if !parsed.Equal(base.Add(1500 * time.Millisecond)) {
		t.Errorf("Expected round trip, got %v", parsed)
	}
}
