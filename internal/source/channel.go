package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	collectorTimeout = 2 * time.Minute
	maxLineLength    = 1 << 20 // 1 MiB per JSONL line
)

// ChannelReader yields recent messages of a channel-like source and resolves
// channel identities. Implementations surface access-denied and not-found
// conditions as ErrAccessDenied and ErrNotFound.
type ChannelReader interface {
	IterateRecent(ctx context.Context, channel string, limit int) ([]Message, error)
	ResolveIdentity(ctx context.Context, channel string) error
}

// Message is one raw channel message as emitted by the collector, before
// hyperlink stripping and filtering.
type Message struct {
	ID      int64
	Text    string
	Caption string
	Media   *MediaRef
}

// CollectorReader reads channel history through the Python collector script.
// Channel history is only reachable through a user session, which lives in
// the collector.
type CollectorReader struct {
	scriptPath string
	pythonPath string
	sessionDir string
}

// NewCollectorReader creates a reader around the collector script.
func NewCollectorReader(scriptPath, pythonPath, sessionDir string) (*CollectorReader, error) {
	if strings.TrimSpace(scriptPath) == "" {
		return nil, errors.New("collector: script path is required")
	}
	if pythonPath == "" {
		pythonPath = "python3"
	}
	return &CollectorReader{
		scriptPath: scriptPath,
		pythonPath: pythonPath,
		sessionDir: sessionDir,
	}, nil
}

// IterateRecent invokes the collector for the channel's most recent messages
// and parses its JSONL output, preserving the order the collector emits.
func (cr *CollectorReader) IterateRecent(ctx context.Context, channel string, limit int) ([]Message, error) {
	return cr.run(ctx, channel,
		"--channel", channel,
		"--limit", strconv.Itoa(limit),
	)
}

// ResolveIdentity checks that the channel exists and is readable without
// fetching history.
func (cr *CollectorReader) ResolveIdentity(ctx context.Context, channel string) error {
	_, err := cr.run(ctx, channel,
		"--channel", channel,
		"--resolve-only",
	)
	return err
}

func (cr *CollectorReader) run(ctx context.Context, channel string, args ...string) ([]Message, error) {
	ctx, cancel := context.WithTimeout(ctx, collectorTimeout)
	defer cancel()

	cmdArgs := append([]string{cr.scriptPath, "--session-dir", cr.sessionDir}, args...)
	cmd := exec.CommandContext(ctx, cr.pythonPath, cmdArgs...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("collector: stdout pipe: %w", err)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("collector: %s not found: install Python 3 and Telethon to scan channels", cr.pythonPath)
		}
		return nil, fmt.Errorf("collector: start: %w", err)
	}

	msgs, parseErr := parseCollectorOutput(stdout, channel)

	if err := cmd.Wait(); err != nil {
		// A typed condition from the output wins over the generic exit error.
		if parseErr != nil && (errors.Is(parseErr, ErrAccessDenied) || errors.Is(parseErr, ErrNotFound)) {
			return nil, parseErr
		}
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg != "" {
			return nil, fmt.Errorf("collector: %s: %s", channel, errMsg)
		}
		return nil, fmt.Errorf("collector: %s: %w", channel, err)
	}

	if parseErr != nil {
		return nil, parseErr
	}
	return msgs, nil
}

// collectorRecord is the JSONL schema emitted by the collector. A record is
// either a message or a terminal error condition.
type collectorRecord struct {
	Error     string `json:"error,omitempty"`
	MsgID     int64  `json:"msg_id"`
	Text      string `json:"text"`
	Caption   string `json:"caption"`
	MediaKind string `json:"media_kind"`
	MediaRef  string `json:"media_ref"`
}

func parseCollectorOutput(r io.Reader, channel string) ([]Message, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, maxLineLength), maxLineLength)

	var msgs []Message
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec collectorRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("collector: line %d: invalid json: %w", lineNum, err)
		}

		if rec.Error != "" {
			switch rec.Error {
			case "access_denied":
				return nil, fmt.Errorf("channel %s: %w", channel, ErrAccessDenied)
			case "not_found":
				return nil, fmt.Errorf("channel %s: %w", channel, ErrNotFound)
			default:
				return nil, fmt.Errorf("collector: %s: %s", channel, rec.Error)
			}
		}

		msgs = append(msgs, Message{
			ID:      rec.MsgID,
			Text:    rec.Text,
			Caption: rec.Caption,
			Media:   mediaFromRecord(rec),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("collector: read output: %w", err)
	}

	return msgs, nil
}

func mediaFromRecord(rec collectorRecord) *MediaRef {
	if rec.MediaKind == "" {
		return nil
	}
	kind := MediaKind(rec.MediaKind)
	switch kind {
	case MediaPhoto, MediaDocument:
	default:
		kind = MediaOther
	}
	return &MediaRef{Kind: kind, Ref: rec.MediaRef}
}
