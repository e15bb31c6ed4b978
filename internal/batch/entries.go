package batch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samvad-hq/sammi-go/pkg/sammi"
	"gopkg.in/yaml.v3"
)

const (
	fieldID   = "id"
	fieldOnce = "once"
)

// Entry is one request in a requests file.
type Entry struct {
	ID string
	// Once entries are skipped after the journal records a successful delivery.
	Once       bool
	Descriptor *sammi.Descriptor
}

type requestsFile struct {
	Requests []*sammi.Descriptor `json:"requests" yaml:"requests"`
}

// LoadEntries reads a YAML or JSON requests file. The id and once fields are
// consumed by the runner; every other field is sent to SAMMI in file order.
func LoadEntries(path string) ([]Entry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("requests file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open requests file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read requests file: %w", err)
	}

	parsed, err := parseRequests(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Requests) == 0 {
		return nil, errors.New("requests file contains no requests entries")
	}

	entries := make([]Entry, 0, len(parsed.Requests))
	seen := make(map[string]struct{}, len(parsed.Requests))
	for i, d := range parsed.Requests {
		entry, err := toEntry(i, d)
		if err != nil {
			return nil, fmt.Errorf("requests[%d]: %w", i, err)
		}
		if _, dup := seen[entry.ID]; dup {
			return nil, fmt.Errorf("duplicate request id %q", entry.ID)
		}
		seen[entry.ID] = struct{}{}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseRequests(data []byte, ext string) (requestsFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var lastErr error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var f requestsFile
		if err := d.fn(data, &f); err != nil {
			lastErr = fmt.Errorf("decode %s requests: %w", d.name, err)
			continue
		}
		return f, nil
	}
	if lastErr != nil {
		return requestsFile{}, lastErr
	}
	return requestsFile{}, errors.New("requests file format not recognized (expected YAML or JSON)")
}

func toEntry(i int, d *sammi.Descriptor) (Entry, error) {
	if d == nil {
		return Entry{}, errors.New("entry is empty")
	}
	d = d.Clone()

	entry := Entry{ID: "entry-" + strconv.Itoa(i+1)}
	if raw, ok := d.Get(fieldID); ok {
		id := strings.TrimSpace(fmt.Sprint(raw))
		if id == "" {
			return Entry{}, errors.New("id must not be empty")
		}
		entry.ID = id
		d.Delete(fieldID)
	}
	if raw, ok := d.Get(fieldOnce); ok {
		once, isBool := raw.(bool)
		if !isBool {
			return Entry{}, fmt.Errorf("once must be a boolean for %q", entry.ID)
		}
		entry.Once = once
		d.Delete(fieldOnce)
	}

	op := d.Request()
	if op == "" {
		return Entry{}, fmt.Errorf("request is required for %q", entry.ID)
	}
	if _, ok := sammi.Lookup(op); !ok {
		return Entry{}, fmt.Errorf("unknown request %q for %q", op, entry.ID)
	}

	entry.Descriptor = d
	return entry, nil
}
