package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Display caps for attached sources. Truncation only; message data keeps
// every deduplicated record.
const (
	MaxDetailSources = 8
	MaxInlineSources = 5
)

const unknownSourceLabel = "Unknown source"

// DedupeKey identifies a source record: the first non-empty of url, title,
// source and chunkId, or a hash of the whole record when all are empty.
func (s SourceRecord) DedupeKey() string {
	for _, v := range []string{s.URL, s.Title, s.Source, s.ChunkID} {
		if v != "" {
			return v
		}
	}
	return s.contentHash()
}

// contentHash serializes the full record so all-empty records still get a key
func (s SourceRecord) contentHash() string {
	data, _ := json.Marshal(s)
	h := sha256.Sum256(data)
	return "record:" + hex.EncodeToString(h[:])
}

// DisplayLabel is the first non-empty of title, source and url
func (s SourceRecord) DisplayLabel() string {
	for _, v := range []string{s.Title, s.Source, s.URL} {
		if v != "" {
			return v
		}
	}
	return unknownSourceLabel
}

// DedupeSources keeps the first record for each dedup key, preserving order
func DedupeSources(records []SourceRecord) []SourceRecord {
	if len(records) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(records))
	unique := make([]SourceRecord, 0, len(records))

	for _, rec := range records {
		key := rec.DedupeKey()
		if !seen[key] {
			seen[key] = true
			unique = append(unique, rec)
		}
	}

	return unique
}

// CapSources returns at most n leading records without copying
func CapSources(records []SourceRecord, n int) []SourceRecord {
	if n < 0 {
		n = 0
	}
	if len(records) <= n {
		return records
	}
	return records[:n]
}
