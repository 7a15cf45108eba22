package journal

import (
	"encoding/json"
	"fmt"
	"os"

	"chartink-gateway/internal/alert"
)

// Journal persists alert records as JSON lines in an append-only file.
// The file is opened per delivery and released before the response goes
// out, so no handle survives between requests.
type Journal struct {
	path string
}

// New returns a journal writing to path.
func New(path string) *Journal {
	return &Journal{path: path}
}

// Path reports the journal location.
func (j *Journal) Path() string {
	return j.path
}

// Append writes one JSON line per record, each in a single write call so
// append-mode semantics keep lines whole. The handle is closed even when
// a write fails partway; lines already written stay in place.
func (j *Journal) Append(records []alert.Record) error {
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open alert journal: %w", err)
	}
	defer f.Close()

	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode alert record: %w", err)
		}
		if _, err := f.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("append alert record: %w", err)
		}
	}
	return nil
}
