package main

import (
	"bytes"
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbauerster/mpb/v8/decor"
)

func progressServer(t *testing.T, jobID string, responses ...string) (*apiClient, *atomic.Int32) {
	t.Helper()
	calls := new(atomic.Int32)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/progress/"+jobID, func(w http.ResponseWriter, r *http.Request) {
		i := int(calls.Add(1)) - 1
		if i >= len(responses) {
			i = len(responses) - 1
		}
		w.Write([]byte(responses[i]))
	})
	return newFakeServer(t, mux), calls
}

func withoutColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestWatchProgress_Completed(t *testing.T) {
	withoutColor(t)
	c, _ := progressServer(t, "abc",
		`{}`,
		`{"status":"downloading","percent":40,"speed":1536,"eta":3}`,
		`{"status":"completed","percent":100,"speed":0,"eta":0,"filename":"Clip.mp4"}`,
	)

	var out bytes.Buffer
	err := watchProgress(context.Background(), &out, c, "abc", time.Millisecond)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Completed: Clip.mp4")
	assert.Contains(t, out.String(), "abc")
}

func TestWatchProgress_FullDownloadThenFailure(t *testing.T) {
	withoutColor(t)
	c, calls := progressServer(t, "abc",
		`{"status":"downloading","percent":100,"speed":2048,"eta":0}`,
		`{"error":"ERROR: Postprocessing: Conversion failed!"}`,
	)

	var out bytes.Buffer
	err := watchProgress(context.Background(), &out, c, "abc", time.Millisecond)
	require.EqualError(t, err, "download failed: ERROR: Postprocessing: Conversion failed!")
	assert.Equal(t, int32(2), calls.Load())
	assert.Contains(t, out.String(), "Failed: ERROR: Postprocessing: Conversion failed!")
	assert.NotContains(t, out.String(), "Completed")
}

func TestWatchProgress_Cancelled(t *testing.T) {
	withoutColor(t)
	c, _ := progressServer(t, "abc", `{"status":"downloading","percent":10,"speed":0,"eta":0}`)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	err := watchProgress(ctx, &out, c, "abc", time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotContains(t, out.String(), "Completed")
}

func TestProgressBar_Decorators(t *testing.T) {
	var out bytes.Buffer
	bar := newProgressBar(&out, "abc")

	percent := 50.0
	bar.Update(progressView{Status: "downloading", Percent: &percent, Speed: 1536, ETA: 90})
	assert.Equal(t, "1.5 KiB/s", bar.speed(decor.Statistics{}))
	assert.Equal(t, "ETA 1m30s", bar.eta(decor.Statistics{}))

	bar.Update(progressView{Status: "downloading", Percent: &percent})
	assert.Equal(t, "", bar.speed(decor.Statistics{}))

	bar.Finish(progressView{}, context.Canceled)
}

func TestPrintProgress(t *testing.T) {
	withoutColor(t)
	percent := 100.0

	var out bytes.Buffer
	printProgress(&out, progressView{Status: "downloading", Percent: &percent, Speed: 1024})
	printProgress(&out, progressView{Status: "completed", Percent: &percent, Filename: "Clip.mp4"})
	printProgress(&out, progressView{Error: "ERROR: Video unavailable"})

	assert.Equal(t, "100.0%  1.0 KiB/s  ETA 0s\nCompleted: Clip.mp4\nFailed: ERROR: Video unavailable\n", out.String())
}
