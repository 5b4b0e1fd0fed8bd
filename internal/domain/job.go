package domain

// JobRequest is the immutable context a download job is started with.
// JobID is chosen by the caller and scopes exactly one progress record.
type JobRequest struct {
	URL      string `json:"url"`
	FormatID string `json:"format_id"`
	JobID    string `json:"video_id"`
}

// Validate checks that every field of the request is non-empty.
// Whitespace counts as a value.
func (r JobRequest) Validate() error {
	if r.URL == "" || r.FormatID == "" || r.JobID == "" {
		return ErrMissingParameters
	}
	return nil
}
