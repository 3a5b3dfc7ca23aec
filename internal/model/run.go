package model

import "strings"

// Package model contains domain models/data structures shared across layers.
// Keep it free of business logic and transport/persistence concerns.

// Platform identifies the social platform whose spreadsheet template is used
// for generated batch documents.
type Platform string

const (
	PlatformInstagram Platform = "Instagram"
	PlatformTikTok    Platform = "TikTok"
)

// Platforms lists every supported platform in display order.
func Platforms() []Platform {
	return []Platform{PlatformInstagram, PlatformTikTok}
}

// ParsePlatform resolves a user-supplied platform name case-insensitively.
// The boolean reports whether the name matched a supported platform.
func ParsePlatform(s string) (Platform, bool) {
	for _, p := range Platforms() {
		if strings.EqualFold(string(p), s) {
			return p, true
		}
	}
	return "", false
}

// GeneratedFile is one per-batch spreadsheet held as an in-memory buffer.
// Generated documents are never written to disk individually; they only
// exist as archive entries.
type GeneratedFile struct {
	Name string `json:"name"`
	Data []byte `json:"-"`
}

// RunStats summarizes one processing run.
type RunStats struct {
	TotalLinks int    `json:"total_links"`
	BatchSize  int    `json:"batch_size"`
	NumBatches int    `json:"num_batches"`
	Column     string `json:"column"`
}

// RunResult is the outcome of a successful run: the archive bytes, its
// deterministic name, run statistics, and an optional presigned download
// URL when the archive was also published to object storage.
type RunResult struct {
	ArchiveName string   `json:"archive_name"`
	Archive     []byte   `json:"-"`
	Stats       RunStats `json:"stats"`
	DownloadURL string   `json:"download_url,omitempty"`
}

// Inspection describes an uploaded table before a run: its columns, the
// auto-detected link column (empty when none matched), and row/link counts.
// It drives the manual column selection step.
type Inspection struct {
	Columns        []string `json:"columns"`
	DetectedColumn string   `json:"detected_column,omitempty"`
	RowCount       int      `json:"row_count"`
	LinkCount      int      `json:"link_count"`
}
