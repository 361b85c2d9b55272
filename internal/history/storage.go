package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
)

const entryTypeConversation = "conversation"

type entryHeader struct {
	EntryType string `json:"entryType"`
	ID        string `json:"id"`
}

// Save writes snapshot to path, replacing an earlier save of the same session.
func Save(path string, snapshot Snapshot) error {
	if path == "" {
		return errors.New("history: path is empty")
	}
	snapshot.EntryType = entryTypeConversation
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	entries, err := loadEntries(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		entries = nil
	}
	for i, entry := range entries {
		header, err := readHeader(entry)
		if err != nil {
			return err
		}
		if header.EntryType == entryTypeConversation && header.ID == snapshot.ID {
			entries[i] = raw
			return writeEntries(path, entries)
		}
	}
	return writeEntries(path, append(entries, raw))
}

// Load returns every saved conversation, oldest capture first. A missing
// file is an empty history.
func Load(path string) ([]Snapshot, error) {
	entries, err := loadEntries(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	snapshots := make([]Snapshot, 0, len(entries))
	for _, raw := range entries {
		header, err := readHeader(raw)
		if err != nil {
			return nil, err
		}
		if header.EntryType != entryTypeConversation {
			continue
		}
		var snapshot Snapshot
		if err := json.Unmarshal(raw, &snapshot); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].CapturedAt.Before(snapshots[j].CapturedAt)
	})
	return snapshots, nil
}

// Latest returns the most recently captured conversation.
func Latest(path string) (Snapshot, bool, error) {
	snapshots, err := Load(path)
	if err != nil || len(snapshots) == 0 {
		return Snapshot{}, false, err
	}
	return snapshots[len(snapshots)-1], true, nil
}

func writeEntries(path string, entries []json.RawMessage) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func loadEntries(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func readHeader(raw json.RawMessage) (entryHeader, error) {
	var header entryHeader
	if err := json.Unmarshal(raw, &header); err != nil {
		return entryHeader{}, err
	}
	return header, nil
}
