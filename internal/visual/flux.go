package visual

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	FluxSpaceURL = "https://black-forest-labs-flux-1-dev.hf.space"
	fluxAPIName  = "infer"
)

// FluxGenerator drives a FLUX Gradio space: queue a job, wait on its event
// stream for the complete frame, then download the file it names.
type FluxGenerator struct {
	spaceURL   string
	token      string
	width      int
	height     int
	guidance   float64
	steps      int
	httpClient *http.Client
}

// NewFluxGenerator creates a generator for spaceURL. token may be empty.
func NewFluxGenerator(spaceURL, token string) *FluxGenerator {
	if spaceURL == "" {
		spaceURL = FluxSpaceURL
	}
	return &FluxGenerator{
		spaceURL:   strings.TrimRight(spaceURL, "/"),
		token:      token,
		width:      1024,
		height:     1024,
		guidance:   3.5,
		steps:      28,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// SetSize overrides the requested image dimensions.
func (f *FluxGenerator) SetSize(width, height int) {
	if width > 0 && height > 0 {
		f.width, f.height = width, height
	}
}

// Name implements Generator.
func (f *FluxGenerator) Name() string { return "flux" }

func (f *FluxGenerator) headers() http.Header {
	h := http.Header{}
	if f.token != "" {
		h.Set("Authorization", "Bearer "+f.token)
	}
	return h
}

// Generate implements Generator.
func (f *FluxGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	eventID, err := f.queue(ctx, prompt)
	if err != nil {
		return nil, err
	}

	fileURL, err := f.await(ctx, eventID)
	if err != nil {
		return nil, err
	}

	return download(ctx, f.httpClient, fileURL, f.headers())
}

func (f *FluxGenerator) queue(ctx context.Context, prompt string) (string, error) {
	// [prompt, seed, randomize_seed, width, height, guidance_scale, num_inference_steps]
	payload := map[string]any{
		"data": []any{prompt, 0, true, f.width, f.height, f.guidance, f.steps},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.spaceURL+"/gradio_api/call/"+fluxAPIName, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = f.headers()
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("flux queue request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := statusError(resp); err != nil {
		return "", fmt.Errorf("flux queue: %w", err)
	}

	var queued struct {
		EventID string `json:"event_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&queued); err != nil {
		return "", fmt.Errorf("failed to decode queue response: %w", err)
	}
	if queued.EventID == "" {
		return "", fmt.Errorf("flux queue: missing event_id")
	}
	return queued.EventID, nil
}

// await reads the event stream until a complete frame carries a file URL.
// Frames from generating events are intermediate previews and are skipped.
func (f *FluxGenerator) await(ctx context.Context, eventID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.spaceURL+"/gradio_api/call/"+fluxAPIName+"/"+eventID, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = f.headers()

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("flux stream request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := statusError(resp); err != nil {
		return "", fmt.Errorf("flux stream: %w", err)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	event := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			if event == "error" {
				return "", fmt.Errorf("flux reported an error event")
			}
			continue
		case !strings.HasPrefix(line, "data:") || event != "complete":
			continue
		}

		if u := f.fileURL(strings.TrimSpace(strings.TrimPrefix(line, "data:"))); u != "" {
			return u, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("flux stream read failed: %w", err)
	}
	return "", ErrNoImage
}

func (f *FluxGenerator) fileURL(raw string) string {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return ""
	}
	for _, item := range items {
		var file struct {
			URL  string `json:"url"`
			Path string `json:"path"`
		}
		if err := json.Unmarshal(item, &file); err != nil {
			continue
		}
		u := file.URL
		if u == "" {
			u = file.Path
		}
		if u == "" {
			continue
		}
		if !strings.HasPrefix(u, "http") {
			u = f.spaceURL + "/gradio_api/file=" + u
		}
		return u
	}
	return ""
}
