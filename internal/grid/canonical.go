package grid

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Wire field names of the persisted records.
const (
	fieldAssignments     = "assignments"
	fieldRoom            = "room"
	fieldSubject         = "subject"
	fieldTime            = "time"
	fieldBackgroundColor = "backgroundColor"
)

// MarshalSnapshot produces the canonical JSON form of a snapshot.
//
// Output is a single object keyed by cell identifier string. Keys are sorted
// and nothing is HTML escaped, so two equal snapshots always produce identical
// bytes. Text is written as entered. Records that are not meaningful
// are skipped: absence is the only representation of an empty cell.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	keys := make([]string, 0, len(s))
	byKey := make(map[string]CellRecord, len(s))
	for id, rec := range s {
		if !id.Valid() {
			return nil, fmt.Errorf("marshal snapshot: %w: %s", ErrInvalidCell, id)
		}
		if !rec.Meaningful() {
			continue
		}
		k := id.String()
		keys = append(keys, k)
		byKey[k] = rec
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, k); err != nil {
			return nil, fmt.Errorf("marshal snapshot: %w", err)
		}
		buf.WriteByte(':')
		if err := writeRecord(&buf, byKey[k]); err != nil {
			return nil, fmt.Errorf("marshal snapshot[%s]: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalPreferences produces the canonical JSON form of the preferences.
func MarshalPreferences(p Preferences) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeField(&buf, fieldBackgroundColor, p.BackgroundColor); err != nil {
		return nil, fmt.Errorf("marshal preferences: %w", err)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeRecord writes one cell object with its keys in sorted order.
func writeRecord(buf *bytes.Buffer, rec CellRecord) error {
	buf.WriteByte('{')
	if err := writeString(buf, fieldAssignments); err != nil {
		return err
	}
	buf.WriteString(":[")
	for i, v := range rec.Assignments {
		if i > 0 {
			buf.WriteByte(',')
		}
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	}
	buf.WriteByte(']')

	for _, f := range []struct{ name, value string }{
		{fieldRoom, rec.Room},
		{fieldSubject, rec.Subject},
		{fieldTime, rec.Time},
	} {
		buf.WriteByte(',')
		if err := writeField(buf, f.name, f.value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeField(buf *bytes.Buffer, name, value string) error {
	if err := writeString(buf, name); err != nil {
		return err
	}
	buf.WriteByte(':')
	return writeString(buf, value)
}

// writeString writes a JSON string. Only quote, backslash and control
// characters are escaped.
func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encoder appends a newline.
	out := bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'})
	buf.Write(unescapeLineSeparators(out))
	return nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes that
// encoding/json emits back into literal characters. An escape preceded by an
// odd run of backslashes is a literal backslash followed by text and is left
// alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+5 < len(data) && data[i+1] == 'u' &&
			data[i+2] == '2' && data[i+3] == '0' && data[i+4] == '2' &&
			(data[i+5] == '8' || data[i+5] == '9') {
			run := 0
			for j := len(out) - 1; j >= 0 && out[j] == '\\'; j-- {
				run++
			}
			if run%2 == 0 {
				if data[i+5] == '8' {
					out = append(out, "\u2028"...)
				} else {
					out = append(out, "\u2029"...)
				}
				i += 5
				continue
			}
		}
		out = append(out, data[i])
	}
	return out
}

// wireCell is the decoded shape of one persisted cell. Missing fields decode
// to their zero values.
type wireCell struct {
	Subject     string `json:"subject"`
	Room        string `json:"room"`
	Time        string `json:"time"`
	Assignments []bool `json:"assignments"`
}

// UnmarshalSnapshot decodes a persisted cells record.
//
// Unknown cell keys and checklists longer than AssignmentCount are errors.
// Shorter checklists are padded with false. Records that decode to nothing
// meaningful are dropped.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var raw map[string]wireCell
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	out := make(Snapshot, len(raw))
	for k, wc := range raw {
		id, err := ParseCellID(k)
		if err != nil {
			return nil, fmt.Errorf("unmarshal snapshot: %w", err)
		}
		if len(wc.Assignments) > AssignmentCount {
			return nil, fmt.Errorf("unmarshal snapshot[%s]: %d assignments, at most %d allowed",
				k, len(wc.Assignments), AssignmentCount)
		}
		rec := CellRecord{Subject: wc.Subject, Room: wc.Room, Time: wc.Time}
		copy(rec.Assignments[:], wc.Assignments)
		if rec.Meaningful() {
			out[id] = rec
		}
	}
	return out, nil
}

// UnmarshalPreferences decodes a persisted preferences record. A missing
// color decodes to DefaultBackgroundColor; an invalid one is an error.
func UnmarshalPreferences(data []byte) (Preferences, error) {
	var raw struct {
		BackgroundColor *string `json:"backgroundColor"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Preferences{}, fmt.Errorf("unmarshal preferences: %w", err)
	}
	if raw.BackgroundColor == nil {
		return DefaultPreferences(), nil
	}
	color, err := NormalizeColor(*raw.BackgroundColor)
	if err != nil {
		return Preferences{}, fmt.Errorf("unmarshal preferences: %w", err)
	}
	return Preferences{BackgroundColor: color}, nil
}
