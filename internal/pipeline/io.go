package pipeline

import "github.com/cedarwud/orbit-engine/internal/jsonio"

func cleanStale(dir, glob string) error {
	if dir == "" || glob == "" {
		return nil
	}
	return jsonio.CleanStale(dir, glob)
}

// SaveSnapshot writes a validation snapshot to path, overwriting any
// existing file (snapshots are one-per-stage, overwritten each run).
func SaveSnapshot(path string, snap Snapshot) error {
	_, err := jsonio.WriteJSON(path, snap)
	return err
}
