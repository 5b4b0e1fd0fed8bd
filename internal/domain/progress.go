package domain

import (
	"encoding/json"
	"math"
)

// ProgressStatus is the status reported by a raw progress event
type ProgressStatus string

const (
	ProgressDownloading ProgressStatus = "downloading"
	ProgressFinished    ProgressStatus = "finished"
)

// ProgressEvent is a raw progress report emitted by an Extractor
type ProgressEvent struct {
	Status             ProgressStatus
	DownloadedBytes    float64
	TotalBytes         float64
	TotalBytesEstimate float64
	Speed              float64 // bytes per second
	ETA                float64 // seconds
	Filename           string
}

// Total returns the exact total size when known, falling back to the estimate.
// Zero means the size is unknown.
func (e ProgressEvent) Total() float64 {
	if e.TotalBytes > 0 {
		return e.TotalBytes
	}
	if e.TotalBytesEstimate > 0 {
		return e.TotalBytesEstimate
	}
	return 0
}

// SnapshotState tells which kind of snapshot a value holds
type SnapshotState string

const (
	SnapshotUnknown     SnapshotState = ""
	SnapshotDownloading SnapshotState = "downloading"
	SnapshotCompleted   SnapshotState = "completed"
	SnapshotFailed      SnapshotState = "failed"
)

// Snapshot is the current progress of one job. The zero value is the empty
// snapshot returned for unknown job identifiers.
type Snapshot struct {
	State    SnapshotState
	Percent  float64
	Speed    float64
	ETA      int64
	Error    string
	Filename string
}

// DownloadingSnapshot builds an in-progress snapshot. Percent is rounded to
// one decimal and clamped to [0, 100].
func DownloadingSnapshot(percent, speed float64, eta int64) Snapshot {
	percent = math.Round(percent*10) / 10
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	if speed < 0 {
		speed = 0
	}
	if eta < 0 {
		eta = 0
	}
	return Snapshot{State: SnapshotDownloading, Percent: percent, Speed: speed, ETA: eta}
}

// CompletedSnapshot builds the terminal success snapshot
func CompletedSnapshot(filename string) Snapshot {
	return Snapshot{State: SnapshotCompleted, Percent: 100, Filename: filename}
}

// FailedSnapshot builds the terminal failure snapshot
func FailedSnapshot(message string) Snapshot {
	return Snapshot{State: SnapshotFailed, Error: message}
}

// IsEmpty reports whether no progress has been recorded
func (s Snapshot) IsEmpty() bool {
	return s.State == SnapshotUnknown
}

// IsComplete reports whether the job finished successfully
func (s Snapshot) IsComplete() bool {
	return s.State == SnapshotCompleted
}

// IsTerminal reports whether the job has either completed or failed
func (s Snapshot) IsTerminal() bool {
	return s.State == SnapshotCompleted || s.State == SnapshotFailed
}

type snapshotJSON struct {
	Status   SnapshotState `json:"status"`
	Percent  float64       `json:"percent"`
	Speed    float64       `json:"speed"`
	ETA      int64         `json:"eta"`
	Filename string        `json:"filename,omitempty"`
}

type failedSnapshotJSON struct {
	Error string `json:"error"`
}

// MarshalJSON encodes the empty snapshot as {}, a failure as {"error": ...}
// and anything else as status, percent, speed and eta. Only a "completed"
// status is terminal; a downloading snapshot may already read 100 percent.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	switch s.State {
	case SnapshotUnknown:
		return []byte("{}"), nil
	case SnapshotFailed:
		return json.Marshal(failedSnapshotJSON{Error: s.Error})
	default:
		return json.Marshal(snapshotJSON{
			Status:   s.State,
			Percent:  s.Percent,
			Speed:    s.Speed,
			ETA:      s.ETA,
			Filename: s.Filename,
		})
	}
}
