package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
)

const (
	teamsFile           = "teams.json"
	attemptsFile        = "ctf_attempts.json"
	hintPurchasesFile   = "hint_purchases.json"
	challengeAccessFile = "challenge_access.json"
	timerFile           = "timer.json"
)

var fileJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONFilePersister keeps each table in its own indented JSON file under
// dir. Files are replaced through a temp file and rename; unchanged tables
// are not rewritten.
type JSONFilePersister struct {
	dir     string
	written map[string][]byte
}

func NewJSONFilePersister(dir string) (*JSONFilePersister, error) {
	if dir == "" {
		return nil, fmt.Errorf("data dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &JSONFilePersister{dir: dir, written: make(map[string][]byte)}, nil
}

func (p *JSONFilePersister) Load(_ context.Context) (Snapshot, error) {
	var out Snapshot
	if err := p.readTable(teamsFile, &out.Teams); err != nil {
		return Snapshot{}, err
	}
	if err := p.readTable(attemptsFile, &out.Attempts); err != nil {
		return Snapshot{}, err
	}
	if err := p.readTable(hintPurchasesFile, &out.HintPurchases); err != nil {
		return Snapshot{}, err
	}
	if err := p.readTable(challengeAccessFile, &out.ChallengeAccess); err != nil {
		return Snapshot{}, err
	}
	if err := p.readTable(timerFile, &out.Timer); err != nil {
		return Snapshot{}, err
	}
	return out, nil
}

func (p *JSONFilePersister) Save(_ context.Context, snapshot Snapshot) error {
	tables := []struct {
		name  string
		value any
	}{
		{teamsFile, snapshot.Teams},
		{attemptsFile, snapshot.Attempts},
		{hintPurchasesFile, snapshot.HintPurchases},
		{challengeAccessFile, snapshot.ChallengeAccess},
		{timerFile, snapshot.Timer},
	}
	for _, table := range tables {
		if err := p.writeTable(table.name, table.value); err != nil {
			return err
		}
	}
	return nil
}

func (p *JSONFilePersister) readTable(name string, dst any) error {
	raw, err := os.ReadFile(filepath.Join(p.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := fileJSON.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	p.written[name] = raw
	return nil
}

func (p *JSONFilePersister) writeTable(name string, value any) error {
	raw, err := fileJSON.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if bytes.Equal(p.written[name], raw) {
		return nil
	}

	tmp, err := os.CreateTemp(p.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(p.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", name, err)
	}

	p.written[name] = raw
	return nil
}
