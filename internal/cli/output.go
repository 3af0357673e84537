package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tacogips/frecency/internal/store"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// EntryFormatter writes ranked entries as text or JSON.
//
// Text output is one entry per line with the path last, so it can be piped
// into cut or fzf:
//
//	path
//	score<TAB>path
//	score<TAB>last visit<TAB>path
type EntryFormatter struct {
	Format        string
	Writer        io.Writer
	WithScore     bool
	WithLastVisit bool
	Now           func() time.Time
}

type jsonEntry struct {
	Path      string  `json:"path"`
	Score     float64 `json:"score"`
	LastVisit int64   `json:"last_visit,omitempty"`
}

// Write renders entries in order.
func (f *EntryFormatter) Write(entries []store.Entry) error {
	if f.Format == "json" {
		return f.writeJSON(entries)
	}
	return f.writeText(entries)
}

func (f *EntryFormatter) writeJSON(entries []store.Entry) error {
	out := make([]jsonEntry, len(entries))
	for i, e := range entries {
		out[i] = jsonEntry{Path: e.Path, Score: e.Score}
		if f.WithLastVisit {
			out[i].LastVisit = e.LastVisit
		}
	}
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (f *EntryFormatter) writeText(entries []store.Entry) error {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	ref := now()

	for _, e := range entries {
		var line string
		switch {
		case f.WithScore && f.WithLastVisit:
			line = formatScore(e.Score) + "\t" + relTime(e.LastVisit, ref) + "\t" + e.Path
		case f.WithScore:
			line = formatScore(e.Score) + "\t" + e.Path
		default:
			line = e.Path
		}
		if _, err := fmt.Fprintln(f.Writer, line); err != nil {
			return err
		}
	}
	return nil
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 4, 64)
}

func relTime(ms int64, ref time.Time) string {
	return humanize.RelTime(time.UnixMilli(ms), ref, "ago", "from now")
}
