package domain

import "context"

// ProgressCallback receives raw progress events from an Extractor.
// Events for one fetch are delivered sequentially, in emission order.
type ProgressCallback func(event ProgressEvent)

// Extractor defines the interface for the external extraction backend
type Extractor interface {
	// Inspect fetches metadata and the list of downloadable formats for url.
	// A URL without downloadable formats yields an empty Formats list, not an error.
	Inspect(ctx context.Context, url string) (*VideoInfo, error)

	// Fetch downloads the given format of url into the download directory.
	// onProgress is called zero or more times with downloading events and
	// exactly once with a finished event when the transfer succeeds.
	// A failed transfer is reported through the returned error instead.
	Fetch(ctx context.Context, url, formatID string, onProgress ProgressCallback) error
}
