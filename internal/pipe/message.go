package pipe

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Message is one unit received on the pipe channel.
type Message struct {
	Name    string  `json:"name"`
	Payload *string `json:"payload,omitempty"`
}

// Report is a decoded working-directory report.
type Report struct {
	PaneID uint32
	Path   string
}

var (
	ErrNoPayload    = errors.New("payload missing")
	ErrMalformed    = errors.New("token not quote-delimited")
	ErrUnterminated = errors.New("unterminated token")
	ErrTokenCount   = errors.New("expected exactly two tokens")
	ErrPaneID       = errors.New("pane id is not an unsigned 32-bit integer")
	ErrEmptyPath    = errors.New("path is empty")
)

const quote = '"'

// NewMessage builds a message carrying payload.
func NewMessage(name, payload string) Message {
	return Message{Name: name, Payload: &payload}
}

// FormatReport renders the payload a shell hook sends for a pane.
func FormatReport(paneID uint32, path string) string {
	return fmt.Sprintf("%c%d%c %c%s%c", quote, paneID, quote, quote, path, quote)
}

// ParseReport decodes a `"<pane_id>" "<path>"` payload. Tokens are separated
// by single spaces and each must be wrapped in double quotes; a path may
// contain spaces but not quotes.
func ParseReport(payload *string) (Report, error) {
	if payload == nil {
		return Report{}, ErrNoPayload
	}
	raw := strings.TrimRight(*payload, "\r\n")
	toks, err := scanTokens(raw)
	if err != nil {
		return Report{}, fmt.Errorf("parse report %q: %w", raw, err)
	}
	if len(toks) != 2 {
		return Report{}, fmt.Errorf("parse report %q: %w (got %d)", raw, ErrTokenCount, len(toks))
	}
	id, err := strconv.ParseUint(toks[0], 10, 32)
	if err != nil {
		return Report{}, fmt.Errorf("parse report %q: %w", raw, ErrPaneID)
	}
	if toks[1] == "" {
		return Report{}, fmt.Errorf("parse report %q: %w", raw, ErrEmptyPath)
	}
	return Report{PaneID: uint32(id), Path: toks[1]}, nil
}

func scanTokens(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var toks []string
	rest := raw
	for {
		if rest == "" || rest[0] != quote {
			return nil, ErrMalformed
		}
		end := strings.IndexByte(rest[1:], quote)
		if end < 0 {
			return nil, ErrUnterminated
		}
		toks = append(toks, rest[1:1+end])
		rest = rest[end+2:]
		if rest == "" {
			return toks, nil
		}
		if rest[0] != ' ' {
			return nil, ErrMalformed
		}
		rest = rest[1:]
	}
}
