// Package serializer is a dotted-path keyed JSON store. Callers stage
// primitive values under flat string keys such as "Game.Kills", then
// transcribe the staged document to disk in one step.
package serializer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Serializer stages key/value pairs between a file read and a
// transcription. Values keep their wire type: JSON integers decode as
// int64, floats as float64, strings as string.
type Serializer struct {
	data map[string]any
}

// New creates an empty serializer.
func New() *Serializer {
	return &Serializer{data: make(map[string]any)}
}

// ReadFile loads a JSON document into the staging area, replacing any
// staged data. The file must contain a JSON object.
func (s *Serializer) ReadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	data := make(map[string]any, len(doc))
	for k, v := range doc {
		norm, err := normalize(v)
		if err != nil {
			return fmt.Errorf("decode %s: key %q: %w", path, k, err)
		}
		data[k] = norm
	}
	s.data = data
	return nil
}

// SetData stages a value under the given key, replacing any prior value.
func (s *Serializer) SetData(key string, v any) {
	s.data[key] = v
}

// GetData returns the staged value for the key, if present.
func (s *Serializer) GetData(key string) (any, bool) {
	v, ok := s.data[key]
	return v, ok
}

// Transcribe writes the staged data as an indented JSON object with
// sorted keys, creating parent directories as needed. Encoding is done
// by hand so that float values always carry a decimal point: the wire
// type is how a reader tells 0.0 from 0.
func (s *Serializer) Transcribe(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("transcribe %s: %w", path, err)
		}
	}

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, k := range keys {
		if i > 0 {
			buf.WriteString(",\n")
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return fmt.Errorf("transcribe %s: key %q: %w", path, k, err)
		}
		buf.WriteString("  ")
		buf.Write(keyJSON)
		buf.WriteString(": ")
		valJSON, err := encodeValue(s.data[k])
		if err != nil {
			return fmt.Errorf("transcribe %s: key %q: %w", path, k, err)
		}
		buf.WriteString(valJSON)
	}
	buf.WriteString("\n}\n")

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("transcribe %s: %w", path, err)
	}
	return nil
}

// encodeValue renders one staged value as JSON.
func encodeValue(v any) (string, error) {
	switch x := v.(type) {
	case float64:
		return formatFloat(x), nil
	case float32:
		return formatFloat(float64(x)), nil
	case []string:
		elems := make([]string, len(x))
		for i, s := range x {
			raw, err := json.Marshal(s)
			if err != nil {
				return "", err
			}
			elems[i] = string(raw)
		}
		return "[" + strings.Join(elems, ", ") + "]", nil
	case []any:
		elems := make([]string, len(x))
		for i, elem := range x {
			enc, err := encodeValue(elem)
			if err != nil {
				return "", err
			}
			elems[i] = enc
		}
		return "[" + strings.Join(elems, ", ") + "]", nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
}

// formatFloat renders f with an explicit decimal point so it decodes
// back as a float.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Clean discards all staged data.
func (s *Serializer) Clean() {
	s.data = make(map[string]any)
}

// normalize converts decoded JSON values to their canonical in-memory
// form. Numbers without a fractional part or exponent become int64 so
// that integer stats round-trip with their tag intact.
func normalize(v any) (any, error) {
	switch x := v.(type) {
	case json.Number:
		s := string(x)
		if strings.ContainsAny(s, ".eE") {
			f, err := x.Float64()
			if err != nil {
				return nil, fmt.Errorf("malformed number %q", s)
			}
			return f, nil
		}
		n, err := x.Int64()
		if err != nil {
			return nil, fmt.Errorf("number %q out of int64 range", s)
		}
		return n, nil
	case []any:
		out := make([]any, len(x))
		for i, elem := range x {
			norm, err := normalize(elem)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = norm
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, elem := range x {
			norm, err := normalize(elem)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = norm
		}
		return out, nil
	default:
		return v, nil
	}
}
