// Package jsonio provides the read/write helpers every stage uses to
// persist its output and validation snapshot as JSON.
package jsonio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteJSON serialises data as indented JSON to file_uri, creating parent
// directories as needed.
func WriteJSON(file_uri string, data any) (int, error) {
	jsn, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return 0, fmt.Errorf("marshal %s: %w", file_uri, err)
	}

	if dir := filepath.Dir(file_uri); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(file_uri, jsn, 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", file_uri, err)
	}

	return len(jsn), nil
}

// ReadJSON decodes the JSON file at file_uri into v.
func ReadJSON(file_uri string, v any) error {
	raw, err := os.ReadFile(file_uri)
	if err != nil {
		return fmt.Errorf("read %s: %w", file_uri, err)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", file_uri, err)
	}

	return nil
}

// JsonDumps constructs a compact JSON string of data.
func JsonDumps(data any) (string, error) {
	jsn, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(jsn), nil
}

// JsonIndentDumps constructs an indented JSON string of data.
func JsonIndentDumps(data any) (string, error) {
	jsn, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return "", err
	}
	return string(jsn), nil
}

// CleanStale removes any existing files in dir matching glob, per the
// "clean stale output" step of the stage-processor template method.
func CleanStale(dir, glob string) error {
	matches, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale %s: %w", m, err)
		}
	}
	return nil
}

// LatestMatching returns the most recently modified file in dir matching
// glob, used by a stage to locate the previous stage's output.
func LatestMatching(dir, glob string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no files matching %s in %s", glob, dir)
	}

	latest := matches[0]
	latestInfo, err := os.Stat(latest)
	if err != nil {
		return "", err
	}

	for _, m := range matches[1:] {
		info, err := os.Stat(m)
		if err != nil {
			return "", err
		}
		if info.ModTime().After(latestInfo.ModTime()) {
			latest, latestInfo = m, info
		}
	}

	return latest, nil
}
