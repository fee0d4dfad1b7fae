package journal

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MaxErrorLen bounds Record.Error in bytes. API error bodies can be large.
const MaxErrorLen = 2048

// Outcome is the final state of one upload invocation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Record is one journal line. Records are written once and never rewritten.
type Record struct {
	Time        time.Time `json:"time"`
	Outcome     Outcome   `json:"outcome"`
	File        string    `json:"file"`
	Title       string    `json:"title,omitempty"`
	Application string    `json:"application,omitempty"`
	Privacy     string    `json:"privacy,omitempty"`
	VideoID     string    `json:"video_id,omitempty"`
	URL         string    `json:"url,omitempty"`
	Attempts    int       `json:"attempts"`
	Error       string    `json:"error,omitempty"`
	ErrorKind   string    `json:"error_kind,omitempty"`
}

// Failed matches records of failed uploads.
func Failed(r Record) bool { return r.Outcome == OutcomeFailure }

func (r *Record) truncateError() {
	if len(r.Error) <= MaxErrorLen {
		return
	}
	r.Error = strings.ToValidUTF8(r.Error[:MaxErrorLen], "") + "..."
}

// Encode serialises r to a single line of JSON without the trailing newline.
func (r *Record) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// Decode parses one journal line.
func Decode(line []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(line, &r); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if r.Outcome != OutcomeSuccess && r.Outcome != OutcomeFailure {
		return nil, fmt.Errorf("decode record: unknown outcome %q", r.Outcome)
	}
	return &r, nil
}
