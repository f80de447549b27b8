// Package export implements the versioned backup envelope wrapping the two
// persisted documents: the live match state and the completed-match history.
package export

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ernie/courtside/internal/domain"
	"github.com/klauspost/compress/gzip"
)

// Version is the only envelope version this build reads or writes
const Version = 1

// ErrUnsupportedVersion is returned for envelopes from a different format version
var ErrUnsupportedVersion = errors.New("unsupported backup version")

// Envelope wraps exactly the two persisted documents
type Envelope struct {
	Version          int                            `json:"version"`
	ExportedAt       time.Time                      `json:"exportedAt"`
	MatchState       *domain.MatchDocument          `json:"matchState"`
	CompletedMatches []domain.CompletedMatchSummary `json:"completedMatches"`
}

// Build assembles an envelope from the current documents
func Build(doc *domain.MatchDocument, matches []domain.CompletedMatchSummary) Envelope {
	if matches == nil {
		matches = []domain.CompletedMatchSummary{}
	}
	return Envelope{
		Version:          Version,
		ExportedAt:       time.Now().UTC(),
		MatchState:       doc,
		CompletedMatches: matches,
	}
}

// Write encodes the envelope as JSON, gzip-compressed when compress is set
func Write(w io.Writer, env Envelope, compress bool) error {
	if compress {
		gz := gzip.NewWriter(w)
		if err := writeJSON(gz, env); err != nil {
			gz.Close()
			return err
		}
		return gz.Close()
	}
	return writeJSON(w, env)
}

func writeJSON(w io.Writer, env Envelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("encoding backup: %w", err)
	}
	return nil
}

// Read decodes an envelope, transparently handling gzip input, and rejects
// anything but the supported version. A failed read never partially applies:
// the caller only sees a fully decoded envelope or an error.
func Read(r io.Reader) (*Envelope, error) {
	br := bufio.NewReader(r)

	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer gz.Close()
		return decode(gz)
	}
	return decode(br)
}

func decode(r io.Reader) (*Envelope, error) {
	var env Envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decoding backup: %w", err)
	}
	if env.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	if env.MatchState == nil {
		return nil, errors.New("backup is missing match state")
	}
	return &env, nil
}
