package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when Journal format changes
const journalSchemaVersion uint16 = 1

// JournalDir and JournalFileName locate the undo journal under the project root.
const (
	JournalDir      = ".splice"
	JournalFileName = "undo.mp"
)

var (
	// ErrNoJournal indicates there is nothing to undo.
	ErrNoJournal = errors.New("no undo journal")
	// ErrJournalStale indicates a journaled file changed after it was written.
	ErrJournalStale = errors.New("file changed since the refactoring")
)

// Journal records the contents of the files rewritten by the last Save.
type Journal struct {
	Schema uint16
	Label  string
	Time   time.Time
	Files  []JournalFile
	// Sum covers the After digests, in file order.
	Sum Digest
}

type JournalFile struct {
	Path   string
	Before []byte
	After  []byte
}

// JournalPath returns where the undo journal of root lives.
func JournalPath(root string) string {
	return filepath.Join(root, JournalDir, JournalFileName)
}

func (j *Journal) sum() Digest {
	ds := make([]Digest, 0, len(j.Files))
	for _, f := range j.Files {
		ds = append(ds, DigestOf(f.After))
	}
	return Combine(ds...)
}

// WriteJournal replaces the undo journal of root with j.
func WriteJournal(root string, j *Journal) (string, error) {
	j.Schema = journalSchemaVersion
	slices.SortFunc(j.Files, func(a, b JournalFile) int { return strings.Compare(a.Path, b.Path) })
	j.Sum = j.sum()

	p := JournalPath(root)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return "", err
	}
	defer func() {
		_ = os.Remove(f.Name())
	}()
	if err := msgpack.NewEncoder(f).Encode(j); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	// Атомарная замена
	if err := os.Rename(f.Name(), p); err != nil {
		return "", err
	}
	return p, nil
}

// ReadJournal loads the undo journal of root.
func ReadJournal(root string) (*Journal, error) {
	p := JournalPath(root)
	// #nosec G304 -- journal path is derived from the project root
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoJournal
		}
		return nil, err
	}
	var j Journal
	if err := msgpack.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	if j.Schema != journalSchemaVersion {
		return nil, fmt.Errorf("%s: unsupported journal schema %d", p, j.Schema)
	}
	if j.Sum != j.sum() {
		return nil, fmt.Errorf("%s: journal is corrupted", p)
	}
	return &j, nil
}

// UndoFromJournal restores the files recorded by the last Save of root.
// Nothing is written unless every file still has the content Save left.
// The journal is removed afterwards.
func UndoFromJournal(root string) (*Journal, error) {
	j, err := ReadJournal(root)
	if err != nil {
		return nil, err
	}
	var stale []string
	for _, f := range j.Files {
		// #nosec G304 -- paths were written by Save
		cur, err := os.ReadFile(f.Path)
		if err != nil || DigestOf(cur) != DigestOf(f.After) {
			stale = append(stale, f.Path)
		}
	}
	if len(stale) > 0 {
		return j, fmt.Errorf("%w: %s", ErrJournalStale, strings.Join(stale, ", "))
	}
	for _, f := range j.Files {
		mode := os.FileMode(0o644)
		if info, err := os.Stat(f.Path); err == nil {
			mode = info.Mode()
		}
		if err := os.WriteFile(f.Path, f.Before, mode); err != nil {
			return j, fmt.Errorf("restore %s: %w", f.Path, err)
		}
	}
	if err := os.Remove(JournalPath(root)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return j, err
	}
	return j, nil
}
