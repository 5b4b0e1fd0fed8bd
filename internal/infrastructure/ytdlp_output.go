package infrastructure

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yourusername/ytgrab-go/internal/domain"
)

// Markers prefix the machine-readable lines we ask yt-dlp to print
const (
	progressMarker = "[ytgrab-progress] "
	fileMarker     = "[ytgrab-file] "
)

// ytdlpProgress mirrors the fields of yt-dlp's %(progress)j we care about.
// Absent or null numbers decode as zero.
type ytdlpProgress struct {
	Status             string  `json:"status"`
	DownloadedBytes    float64 `json:"downloaded_bytes"`
	TotalBytes         float64 `json:"total_bytes"`
	TotalBytesEstimate float64 `json:"total_bytes_estimate"`
	Speed              float64 `json:"speed"`
	ETA                float64 `json:"eta"`
	Filename           string  `json:"filename"`
}

// parseProgressLine decodes a progress template line.
// Returns false for any line that is not one.
func parseProgressLine(line string) (domain.ProgressEvent, bool) {
	if !strings.HasPrefix(line, progressMarker) {
		return domain.ProgressEvent{}, false
	}

	var p ytdlpProgress
	if err := json.Unmarshal([]byte(strings.TrimPrefix(line, progressMarker)), &p); err != nil {
		return domain.ProgressEvent{}, false
	}
	if p.Status == "" {
		return domain.ProgressEvent{}, false
	}

	event := domain.ProgressEvent{
		Status:             domain.ProgressStatus(p.Status),
		DownloadedBytes:    p.DownloadedBytes,
		TotalBytes:         p.TotalBytes,
		TotalBytesEstimate: p.TotalBytesEstimate,
		Speed:              p.Speed,
		ETA:                p.ETA,
	}
	if p.Filename != "" {
		event.Filename = filepath.Base(p.Filename)
	}
	return event, true
}

// parseFileLine extracts the final file name printed after yt-dlp moved the output
func parseFileLine(line string) (string, bool) {
	if !strings.HasPrefix(line, fileMarker) {
		return "", false
	}
	path := strings.TrimSpace(strings.TrimPrefix(line, fileMarker))
	if path == "" || path == "NA" {
		return "", false
	}
	return filepath.Base(path), true
}

// errorMessage picks the most useful raw message from yt-dlp output:
// the last "ERROR:" line, else the last output line, else the exec error.
func errorMessage(lines []string, err error) string {
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.HasPrefix(lines[i], "ERROR:") {
			return lines[i]
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	if err != nil {
		return fmt.Sprintf("yt-dlp failed: %v", err)
	}
	return "yt-dlp failed"
}

// ytdlpInfo mirrors the subset of yt-dlp's -J document used for probing
type ytdlpInfo struct {
	Title          string        `json:"title"`
	Thumbnail      string        `json:"thumbnail"`
	DurationString string        `json:"duration_string"`
	Uploader       string        `json:"uploader"`
	ViewCount      int64         `json:"view_count"`
	UploadDate     string        `json:"upload_date"`
	Formats        []ytdlpFormat `json:"formats"`
}

type ytdlpFormat struct {
	FormatID       string  `json:"format_id"`
	FormatNote     string  `json:"format_note"`
	Ext            string  `json:"ext"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	Filesize       float64 `json:"filesize"`
	FilesizeApprox float64 `json:"filesize_approx"`
}

// toVideoInfo converts the -J document. Formats without an exact or
// approximate size are dropped.
func (i ytdlpInfo) toVideoInfo() *domain.VideoInfo {
	info := &domain.VideoInfo{
		Title:      valueOr(i.Title, "Unknown Title"),
		Thumbnail:  i.Thumbnail,
		Duration:   valueOr(i.DurationString, "Unknown"),
		Channel:    valueOr(i.Uploader, "Unknown Channel"),
		ViewCount:  i.ViewCount,
		UploadDate: i.UploadDate,
		Formats:    make([]domain.Format, 0, len(i.Formats)),
	}

	for _, f := range i.Formats {
		if format, ok := f.toFormat(); ok {
			info.Formats = append(info.Formats, format)
		}
	}

	return info
}

func (f ytdlpFormat) toFormat() (domain.Format, bool) {
	size := f.Filesize
	if size <= 0 {
		size = f.FilesizeApprox
	}
	if size <= 0 {
		return domain.Format{}, false
	}

	note := valueOr(f.FormatNote, "unknown")
	ext := valueOr(f.Ext, "unknown")

	var quality string
	var formatType domain.FormatType
	switch {
	case f.VCodec != "none" && f.ACodec != "none":
		quality = fmt.Sprintf("%s (%s)", note, ext)
		formatType = domain.FormatVideo
	case f.VCodec != "none":
		quality = fmt.Sprintf("%s video (%s)", note, ext)
		formatType = domain.FormatVideo
	default:
		quality = fmt.Sprintf("%s audio (%s)", note, ext)
		formatType = domain.FormatAudio
	}

	return domain.Format{
		FormatID: f.FormatID,
		Quality:  quality,
		Type:     formatType,
		Filesize: int64(size),
		Ext:      ext,
	}, true
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
