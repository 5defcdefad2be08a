package watcher

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

type Mode string

const (
	ModeStock Mode = "stock"
	ModePrice Mode = "price"
)

// StateRecord is the durable form of the last known value. One record
// shape serves both modes; the mode tag keeps a stock record from
// being read back as a price and vice versa.
type StateRecord struct {
	Mode      Mode      `json:"mode"`
	Status    Status    `json:"status,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Currency  string    `json:"currency,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store owns the on-disk state record and is its single writer.
type Store struct {
	path string
}

func NewStore(path string) Store {
	return Store{path: path}
}

// Load reads the last persisted record. A missing file is not an
// error, it reports found=false. A corrupt file reports the same with
// a warning so a damaged record never wedges the watcher.
func (s Store) Load() (StateRecord, bool, error) {
	contents, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return StateRecord{}, false, nil
	}
	if err != nil {
		return StateRecord{}, false, err
	}

	var record StateRecord
	err = json.Unmarshal(contents, &record)
	if err != nil {
		slog.Warn("discarding corrupt state file", "path", s.path, "err", err)
		return StateRecord{}, false, nil
	}
	return record, true, nil
}

// Save replaces the record file atomically: the record goes to a temp
// file in the same directory which is then renamed over the old one,
// so a crash mid-write never leaves a truncated record behind.
func (s Store) Save(record StateRecord) error {
	record.UpdatedAt = time.Now()

	contents, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	_, err = tmp.Write(contents)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write state file: %w", err)
	}
	err = tmp.Close()
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close state file: %w", err)
	}

	err = os.Rename(tmp.Name(), s.path)
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
