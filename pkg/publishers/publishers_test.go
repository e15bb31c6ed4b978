package publishers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistryEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: topic
    type: SNS
    sns:
      topic_arn: " arn:aws:sns:eu-west-1:123:dispatches "
      region: eu-west-1
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "topic" {
		t.Fatalf("expected only topic enabled, got %#v", enabled)
	}
	cfg, ok := reg.ByID("topic")
	if !ok || cfg.Type != TypeSNS || cfg.SNS.TopicARN != "arn:aws:sns:eu-west-1:123:dispatches" {
		t.Fatalf("unexpected sanitized config: %#v", cfg)
	}
}

func TestLoadRegistryJSONDuplicateIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.json")
	raw := `{"publishers":[
		{"id":"a","type":"http","http":{"url":"https://a"}},
		{"id":"a","type":"http","http":{"url":"https://b"}}
	]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestValidatePublisherConfig(t *testing.T) {
	bad := []PublisherConfig{
		{ID: "h1", Type: TypeHTTP},
		{ID: "q1", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "q"}},
		{ID: "s1", Type: TypeSNS, SNS: &SNSPublisherConfig{Region: "eu-west-1"}},
		{ID: "p1", Type: TypePubSub, PubSub: &PubSubPublisherConfig{ProjectID: "p"}},
		{Type: TypeHTTP},
	}
	for _, cfg := range bad {
		if err := validatePublisherConfig(cfg); err == nil {
			t.Fatalf("expected validation error for %#v", cfg)
		}
	}
}

func TestSanitizeHTTPDefaults(t *testing.T) {
	cfg := sanitizePublisherConfig(PublisherConfig{
		ID:   " hook ",
		Type: "HTTP",
		HTTP: &HTTPPublisherConfig{URL: "https://x", Headers: map[string]string{" ": "v", "K": " "}},
	})
	if cfg.ID != "hook" || cfg.HTTP.Method != httpDefaultMethod || cfg.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("unexpected defaults: %#v", cfg.HTTP)
	}
	if cfg.HTTP.Headers != nil {
		t.Fatalf("expected empty headers dropped, got %#v", cfg.HTTP.Headers)
	}
	if !cfg.EnabledValue() {
		t.Fatalf("expected enabled by default")
	}
}
