package sammi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldRequest is the descriptor field naming the operation.
const FieldRequest = "request"

// Descriptor describes one API call as an insertion-ordered set of fields.
// Field order is kept for both the GET query string and the POST body.
type Descriptor struct {
	keys   []string
	values map[string]any
}

// NewDescriptor returns a descriptor for the given operation.
func NewDescriptor(request string) *Descriptor {
	return new(Descriptor).Set(FieldRequest, request)
}

// Set stores value under key. Replacing an existing key keeps its position.
func (d *Descriptor) Set(key string, value any) *Descriptor {
	if d.values == nil {
		d.values = make(map[string]any)
	}
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
	return d
}

// Get returns the value stored under key.
func (d *Descriptor) Get(key string) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.values[key]
	return v, ok
}

// Delete removes key if present.
func (d *Descriptor) Delete(key string) {
	if d == nil {
		return
	}
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the field names in insertion order.
func (d *Descriptor) Keys() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.keys...)
}

// Len returns the number of fields.
func (d *Descriptor) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Request returns the operation name, or "" when the field is missing or not a string.
func (d *Descriptor) Request() string {
	v, _ := d.Get(FieldRequest)
	s, _ := v.(string)
	return s
}

// Clone returns a shallow copy.
func (d *Descriptor) Clone() *Descriptor {
	out := &Descriptor{}
	if d == nil {
		return out
	}
	for _, k := range d.keys {
		out.Set(k, d.values[k])
	}
	return out
}

// MarshalJSON encodes the fields as a JSON object in insertion order.
func (d *Descriptor) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if d != nil {
		for i, k := range d.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := encodeJSON(k)
			if err != nil {
				return nil, err
			}
			val, err := encodeJSON(d.values[k])
			if err != nil {
				return nil, fmt.Errorf("encode field %q: %w", k, err)
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeJSON marshals v without HTML escaping.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON decodes a JSON object keeping the document's key order.
// Nested objects decode into plain maps.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("descriptor must be a JSON object")
	}

	*d = Descriptor{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected descriptor key %v", tok)
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("decode field %q: %w", key, err)
		}
		d.Set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// UnmarshalYAML decodes a YAML mapping keeping the document's key order.
func (d *Descriptor) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("descriptor must be a mapping (line %d)", node.Line)
	}

	*d = Descriptor{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		var val any
		if err := valNode.Decode(&val); err != nil {
			return fmt.Errorf("decode field %q: %w", keyNode.Value, err)
		}
		d.Set(keyNode.Value, val)
	}
	return nil
}

// queryURL appends every field to base as key=value pairs. Reserved
// characters such as & and = are not escaped; SAMMI receives them verbatim.
// Only bytes that cannot appear in a request line are percent-encoded.
func (d *Descriptor) queryURL(base string) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteByte('?')
	for i, k := range d.keys {
		if i > 0 {
			b.WriteByte('&')
		}
		writeQueryPart(&b, k)
		b.WriteByte('=')
		writeQueryPart(&b, formatQueryValue(d.values[k]))
	}
	return b.String()
}

const upperHex = "0123456789ABCDEF"

// writeQueryPart escapes control bytes, space, quotes, angle brackets and
// non-ASCII bytes, the same set a browser escapes in a query string.
func writeQueryPart(b *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= ' ' || c >= 0x7F || c == '"' || c == '\'' || c == '<' || c == '>' {
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&0x0F])
			continue
		}
		b.WriteByte(c)
	}
}

func formatQueryValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case json.Number:
		return val.String()
	case fmt.Stringer:
		return val.String()
	case map[string]any, []any:
		if raw, err := encodeJSON(val); err == nil {
			return string(raw)
		}
	}
	return fmt.Sprint(v)
}
