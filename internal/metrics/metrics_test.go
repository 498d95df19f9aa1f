package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsHandler(t *testing.T) {
	RecordAttempt(StageImage, "pollinations", errors.New("too small"))
	RecordAttempt(StageImage, "pollinations", nil)
	RecordRun("success", 42*time.Second)
	ImageSource.WithLabelValues("placeholder").Inc()

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("failed to fetch metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	output := string(body)

	for _, want := range []string{
		`newscycle_provider_attempts_total{outcome="failure",provider="pollinations",stage="image"}`,
		`newscycle_provider_attempts_total{outcome="success",provider="pollinations",stage="image"}`,
		`newscycle_runs_total{status="success"}`,
		`newscycle_run_duration_seconds_bucket`,
		`newscycle_image_source_total{source="placeholder"}`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in metrics output", want)
		}
	}
}
