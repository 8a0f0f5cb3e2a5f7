package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"oaiagents/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeTrial(layout string, trialID int, records Trajectory) ([]byte, error) {
	return json.Marshal(TrialRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		Layout:          layout,
		TrialID:         trialID,
		Transitions:     records,
	})
}

func DecodeTrial(data []byte) (TrialRecord, error) {
	var record TrialRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return TrialRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return TrialRecord{}, err
	}
	return record, nil
}

// EncodeLines writes one transition per line.
func EncodeLines(w io.Writer, records Trajectory) error {
	enc := json.NewEncoder(w)
	for i, tr := range records {
		if err := enc.Encode(tr); err != nil {
			return fmt.Errorf("encode transition %d: %w", i, err)
		}
	}
	return nil
}

// DecodeLines reads transitions written by EncodeLines. A stream whose first
// non-space byte is '[' is read as a single JSON array instead.
func DecodeLines(r io.Reader) (Trajectory, error) {
	br := bufio.NewReader(r)
	head, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Trajectory{}, nil
		}
		return nil, err
	}
	if head == '[' {
		var out Trajectory
		if err := json.NewDecoder(br).Decode(&out); err != nil {
			return nil, err
		}
		return out, nil
	}

	out := Trajectory{}
	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var tr model.Transition
		if err := json.Unmarshal(raw, &tr); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, tr)
	}
	return out, scanner.Err()
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
