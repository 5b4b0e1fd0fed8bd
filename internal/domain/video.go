package domain

// FormatType classifies a format as carrying video or audio only
type FormatType string

const (
	FormatVideo FormatType = "video"
	FormatAudio FormatType = "audio"
)

// VideoInfo is the read-only result of probing a URL
type VideoInfo struct {
	Title      string   `json:"title"`
	Thumbnail  string   `json:"thumbnail"`
	Duration   string   `json:"duration"`
	Channel    string   `json:"channel"`
	ViewCount  int64    `json:"view_count"`
	UploadDate string   `json:"upload_date"`
	Formats    []Format `json:"formats"`
}

// Format describes one downloadable format of a video
type Format struct {
	FormatID string     `json:"format_id"`
	Quality  string     `json:"quality"`
	Type     FormatType `json:"type"`
	Filesize int64      `json:"filesize"` // exact or approximate
	Ext      string     `json:"ext"`
}
