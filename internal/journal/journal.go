// Package journal is the append-only record of upload outcomes.
//
// File format: newline-delimited JSON, one Record per line.
//
//	{"time":"2025-06-01T20:14:03Z","outcome":"success","file":"...","url":"https://youtu.be/...","attempts":1}\n
//
// Each record is written with a single write(2) on an O_APPEND descriptor
// while holding an advisory lock on a sibling ".lock" file, so a reader never
// observes half a record even if two invocations overlap.
package journal

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// MaxRecordSize is the longest line Read accepts (1 MiB).
const MaxRecordSize = 1024 * 1024

// Journal appends to and reads from one journal file.
type Journal struct {
	path string
	lock *flock.Flock
}

// Open prepares the journal at path, creating its directory. The file itself
// is created on first Append.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("journal dir: %w", err)
	}
	return &Journal{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

// Path returns the journal file path.
func (j *Journal) Path() string { return j.path }

// Append writes r as one line. An Error longer than MaxErrorLen is cut short
// so the record always fits.
func (j *Journal) Append(r Record) error {
	r.truncateError()
	raw, err := r.Encode()
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	line := append(raw, '\n')
	if len(line) > MaxRecordSize {
		return fmt.Errorf("record too large (%d bytes)", len(line))
	}

	if err := j.lock.Lock(); err != nil {
		return fmt.Errorf("lock journal: %w", err)
	}
	defer func() { _ = j.lock.Unlock() }()

	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("append journal: %w", err)
	}
	return f.Close()
}

// Read returns every record in file order. Lines that fail to decode are
// logged and skipped. A missing file yields no records.
func (j *Journal) Read() ([]Record, error) {
	f, err := os.Open(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), MaxRecordSize)

	var records []Record
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if len(sc.Bytes()) == 0 {
			continue
		}
		r, err := Decode(sc.Bytes())
		if err != nil {
			slog.Warn("skipping journal line", "path", j.path, "line", lineNo, "err", err)
			continue
		}
		records = append(records, *r)
	}
	if err := sc.Err(); err != nil {
		return records, fmt.Errorf("read journal: %w", err)
	}
	return records, nil
}

// Tail returns the last n records that match keep, or all of them when
// n <= 0. A nil keep matches every record.
func (j *Journal) Tail(n int, keep func(Record) bool) ([]Record, error) {
	records, err := j.Read()
	if err != nil {
		return nil, err
	}
	if keep != nil {
		var kept []Record
		for _, r := range records {
			if keep(r) {
				kept = append(kept, r)
			}
		}
		records = kept
	}
	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}
