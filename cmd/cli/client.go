package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/yourusername/ytgrab-go/internal/domain"
)

// apiClient talks to a running ytgrab server
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
}

type videoInfoResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	domain.VideoInfo
}

type startResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// progressView is the client side of a progress snapshot. Percent is nil
// when the server has nothing recorded for the job. Only the completed
// status ends a download; 100 percent can still be followed by a failure.
type progressView struct {
	Status   string   `json:"status"`
	Percent  *float64 `json:"percent"`
	Speed    float64  `json:"speed"`
	ETA      int64    `json:"eta"`
	Filename string   `json:"filename"`
	Error    string   `json:"error"`
}

func (p progressView) failed() bool    { return p.Error != "" }
func (p progressView) completed() bool { return p.Status == "completed" && p.Error == "" }
func (p progressView) terminal() bool  { return p.failed() || p.completed() }

func (c *apiClient) VideoInfo(ctx context.Context, videoURL string) (*domain.VideoInfo, error) {
	var resp videoInfoResponse
	if err := c.postJSON(ctx, "/api/video-info", map[string]string{"url": videoURL}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errors.New(resp.Error)
	}
	return &resp.VideoInfo, nil
}

func (c *apiClient) StartDownload(ctx context.Context, req domain.JobRequest) error {
	var resp startResponse
	if err := c.postJSON(ctx, "/api/download", req, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return errors.New(resp.Error)
	}
	return nil
}

func (c *apiClient) Progress(ctx context.Context, jobID string) (progressView, error) {
	var view progressView
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/progress/"+url.PathEscape(jobID), nil)
	if err != nil {
		return view, err
	}
	err = c.do(httpReq, &view)
	return view, err
}

// Fetch downloads a finished file into dir and returns the local path
func (c *apiClient) Fetch(ctx context.Context, filename, dir string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/downloads/"+url.PathEscape(filename), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s", domain.ErrFileNotFound, filename)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	dest := filepath.Join(dir, filepath.Base(filename))
	tmp, err := os.CreateTemp(dir, ".ytgrab-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", err
	}
	return dest, nil
}

// Watch polls the progress of jobID until it is terminal, calling onUpdate
// whenever the snapshot changes.
func (c *apiClient) Watch(ctx context.Context, jobID string, interval time.Duration, onUpdate func(progressView)) (progressView, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last []byte
	for {
		view, err := c.Progress(ctx, jobID)
		if err != nil {
			return view, err
		}
		if data, _ := json.Marshal(view); !bytes.Equal(data, last) {
			onUpdate(view)
			last = data
		}
		if view.terminal() {
			return view, nil
		}

		select {
		case <-ctx.Done():
			return view, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *apiClient) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return c.do(httpReq, out)
}

func (c *apiClient) do(httpReq *http.Request, out interface{}) error {
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unexpected response (%s): %s", resp.Status, truncate(string(body), 200))
	}
	return nil
}
