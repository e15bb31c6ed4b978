package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/sammi-go/internal/config"
	"github.com/samvad-hq/sammi-go/pkg/publishers"
	"github.com/samvad-hq/sammi-go/pkg/sammi"
)

type countingSender struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *countingSender) SendRequest(_ context.Context, d *sammi.Descriptor) sammi.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = map[string]int{}
	}
	c.calls[d.Request()]++
	return sammi.Result{Value: "ok"}
}

func testConfig(t *testing.T, requests string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	reqPath := filepath.Join(dir, "requests.yaml")
	if err := os.WriteFile(reqPath, []byte(requests), 0o644); err != nil {
		t.Fatalf("write requests: %v", err)
	}
	return &config.Config{
		SAMMIHost:              "localhost",
		SAMMIPort:              9450,
		RequestsFile:           reqPath,
		StorageType:            "bbolt",
		BBoltPath:              filepath.Join(dir, "journal.db"),
		StorageTTL:             time.Hour,
		StorageCleanupInterval: time.Hour,
	}
}

const sampleRequests = `
requests:
  - id: welcome
    once: true
    request: alertMessage
    message: hello
  - request: getDeckStatus
    deckID: main
`

func TestRunnerRunsOnceWithoutInterval(t *testing.T) {
	cfg := testConfig(t, sampleRequests)
	sender := &countingSender{}

	runner, err := NewRunner(context.Background(), cfg, sender, nil)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sender.calls[sammi.OpAlertMessage] != 1 || sender.calls[sammi.OpGetDeckStatus] != 1 {
		t.Fatalf("unexpected calls: %#v", sender.calls)
	}

	// The journal persists across runners, so the once entry is skipped.
	runner, err = NewRunner(context.Background(), cfg, sender, nil)
	if err != nil {
		t.Fatalf("NewRunner (second): %v", err)
	}
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run (second): %v", err)
	}
	if sender.calls[sammi.OpAlertMessage] != 1 || sender.calls[sammi.OpGetDeckStatus] != 2 {
		t.Fatalf("unexpected calls after replay: %#v", sender.calls)
	}
}

func TestRunnerPublishesToHTTPSink(t *testing.T) {
	var mu sync.Mutex
	var events []publishers.Event
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt publishers.Event
		if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
			t.Errorf("decode: %v", err)
		}
		mu.Lock()
		events = append(events, evt)
		mu.Unlock()
	}))
	defer sink.Close()

	cfg := testConfig(t, sampleRequests)
	cfg.StorageType = "none"
	cfg.PublishersFile = filepath.Join(t.TempDir(), "publishers.yaml")
	pubs := "publishers:\n  - id: hook\n    type: http\n    http:\n      url: " + sink.URL + "\n"
	if err := os.WriteFile(cfg.PublishersFile, []byte(pubs), 0o644); err != nil {
		t.Fatalf("write publishers: %v", err)
	}

	runner, err := NewRunner(context.Background(), cfg, &countingSender{}, nil)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 || events[0].EntryID != "welcome" || events[1].EntryID != "entry-2" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestRunnerLoopStopsOnCancel(t *testing.T) {
	cfg := testConfig(t, sampleRequests)
	cfg.ReplayInterval = 10 * time.Millisecond
	sender := &countingSender{}

	runner, err := NewRunner(context.Background(), cfg, sender, nil)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := runner.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if sender.calls[sammi.OpGetDeckStatus] < 2 {
		t.Fatalf("expected repeated passes, got %#v", sender.calls)
	}
	if sender.calls[sammi.OpAlertMessage] != 1 {
		t.Fatalf("once entry replayed: %#v", sender.calls)
	}
}

func TestNewRunnerErrors(t *testing.T) {
	if _, err := NewRunner(context.Background(), nil, nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
	cfg := testConfig(t, sampleRequests)
	cfg.RequestsFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := NewRunner(context.Background(), cfg, nil, nil); err == nil {
		t.Fatalf("expected error for missing requests file")
	}
}

func TestNewClientUsesConfig(t *testing.T) {
	client := NewClient(&config.Config{SAMMIHost: "127.0.0.1", SAMMIPort: 9555}, nil)
	if client.BaseURL() != "http://127.0.0.1:9555/api" {
		t.Fatalf("BaseURL = %s", client.BaseURL())
	}
}
