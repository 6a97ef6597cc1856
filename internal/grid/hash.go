package grid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes for content digests. The version suffix follows the
// persisted key names.
const (
	DomainCells       = "timetable/cells/" + FormatVersion
	DomainPreferences = "timetable/preferences/" + FormatVersion
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest returns a stable content hash of a snapshot. Snapshots that differ
// only in non-meaningful records, or only in the Unicode normalization form
// of their text, have the same digest.
func Digest(s Snapshot) (string, error) {
	data, err := MarshalSnapshot(nfc(s))
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	return hashWithDomain(DomainCells, data), nil
}

// PreferencesDigest returns a stable content hash of the preferences.
func PreferencesDigest(p Preferences) (string, error) {
	data, err := MarshalPreferences(p)
	if err != nil {
		return "", fmt.Errorf("preferences digest: %w", err)
	}
	return hashWithDomain(DomainPreferences, data), nil
}

// nfc returns a copy of s with every text field in NFC.
func nfc(s Snapshot) Snapshot {
	out := make(Snapshot, len(s))
	for id, rec := range s {
		rec.Subject = norm.NFC.String(rec.Subject)
		rec.Room = norm.NFC.String(rec.Room)
		rec.Time = norm.NFC.String(rec.Time)
		out[id] = rec
	}
	return out
}
