package version

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrManifest wraps every failure to read or update the project manifest.
var ErrManifest = errors.New("manifest")

// ReadManifest returns the version recorded in the manifest at path. JSON
// and YAML manifests keep it under a top-level "version" key; any other file
// holds nothing but the version.
func ReadManifest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read %s: %v", ErrManifest, path, err)
	}

	var doc struct {
		Version string `json:"version" yaml:"version"`
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return "", fmt.Errorf("%w: failed to parse %s: %v", ErrManifest, path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return "", fmt.Errorf("%w: failed to parse %s: %v", ErrManifest, path, err)
		}
	default:
		doc.Version = strings.TrimSpace(string(data))
	}

	if doc.Version == "" {
		return "", fmt.Errorf("%w: no version recorded in %s", ErrManifest, path)
	}
	return strings.TrimPrefix(doc.Version, "v"), nil
}

// WriteManifest records v in the manifest at path, leaving the rest of the
// file untouched.
func WriteManifest(path string, v Version) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: failed to read %s: %v", ErrManifest, path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrManifest, err)
	}

	var out []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		start, end, err := jsonVersionSpan(data)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrManifest, path, err)
		}
		out = append(out, data[:start]...)
		out = append(out, '"')
		out = append(out, v.String()...)
		out = append(out, '"')
		out = append(out, data[end:]...)
	case ".yaml", ".yml":
		out, err = replaceYAMLVersion(data, v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrManifest, path, err)
		}
	default:
		out = []byte(v.String() + "\n")
	}

	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", ErrManifest, path, err)
	}
	return nil
}

// jsonVersionSpan locates the quoted value of the top-level "version" key.
// Nested objects are skipped whole. With duplicate keys the last one wins,
// as it does for json.Unmarshal.
func jsonVersionSpan(data []byte) (start, end int, err error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return 0, 0, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return 0, 0, errors.New("manifest is not a JSON object")
	}

	start, end = -1, -1
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return 0, 0, err
		}
		if key, _ := tok.(string); key != "version" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return 0, 0, err
			}
			continue
		}

		from := int(dec.InputOffset())
		tok, err = dec.Token()
		if err != nil {
			return 0, 0, err
		}
		if _, ok := tok.(string); !ok {
			return 0, 0, errors.New("top-level version is not a string")
		}
		to := int(dec.InputOffset())
		// data[from:to] is the separator followed by the quoted value
		q := bytes.IndexByte(data[from:to], '"')
		if q < 0 {
			return 0, 0, errors.New("malformed version value")
		}
		start, end = from+q, to
	}
	if start < 0 {
		return 0, 0, errors.New("no top-level version key")
	}
	return start, end, nil
}

// replaceYAMLVersion rewrites the value of the first top-level "version:"
// line. Quoting, trailing comments and line endings are kept.
func replaceYAMLVersion(data []byte, v Version) ([]byte, error) {
	const key = "version:"
	lines := bytes.SplitAfter(data, []byte("\n"))
	for i, line := range lines {
		if !bytes.HasPrefix(line, []byte(key)) {
			continue
		}
		start, end, ok := yamlValueSpan(line, len(key))
		if !ok {
			return nil, errors.New("top-level version has no scalar value")
		}
		var o bytes.Buffer
		o.Write(line[:start])
		o.WriteString(v.String())
		o.Write(line[end:])
		lines[i] = o.Bytes()
		return bytes.Join(lines, nil), nil
	}
	return nil, errors.New("no top-level version key")
}

// yamlValueSpan returns the bounds of the scalar after the key, inside the
// quotes when it is quoted.
func yamlValueSpan(line []byte, from int) (start, end int, ok bool) {
	start = from
	for start < len(line) && (line[start] == ' ' || line[start] == '\t') {
		start++
	}
	if start == len(line) {
		return 0, 0, false
	}
	if q := line[start]; q == '"' || q == '\'' {
		closing := bytes.IndexByte(line[start+1:], q)
		if closing < 0 {
			return 0, 0, false
		}
		return start + 1, start + 1 + closing, true
	}

	end = len(line)
	if c := bytes.Index(line[start:], []byte(" #")); c >= 0 {
		end = start + c
	}
	for end > start && strings.ContainsRune(" \t\r\n", rune(line[end-1])) {
		end--
	}
	if end == start || line[start] == '#' {
		return 0, 0, false
	}
	return start, end, true
}
