package domain

// Notifier is told about the outcome of download jobs
type Notifier interface {
	NotifyDownloadCompleted(jobID, url string)
	NotifyDownloadFailed(jobID, url string, err error)
}
