package infrastructure

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/ytgrab-go/internal/domain"
)

// maxOutputTail bounds how many non-progress output lines are kept for error reporting
const maxOutputTail = 50

// CommandError carries the raw message yt-dlp reported for a failed run
type CommandError struct {
	Message string
	Err     error
}

func (e *CommandError) Error() string {
	return e.Message
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// YTDLPExtractor implements domain.Extractor by running yt-dlp
type YTDLPExtractor struct {
	config      *domain.YTDLPConfig
	downloadDir string
	logger      *zap.Logger
}

// NewYTDLPExtractor creates a new yt-dlp backed extractor writing into downloadDir
func NewYTDLPExtractor(config *domain.YTDLPConfig, downloadDir string, logger *zap.Logger) *YTDLPExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YTDLPExtractor{
		config:      config,
		downloadDir: downloadDir,
		logger:      logger,
	}
}

// Inspect runs yt-dlp in JSON dump mode and converts the result
func (e *YTDLPExtractor) Inspect(ctx context.Context, url string) (*domain.VideoInfo, error) {
	args := e.baseArgs()
	args = append(args, "-J", "--no-warnings", "--no-playlist", "--", url)

	e.logger.Debug("Probing video",
		zap.String("url", url),
		zap.String("command", ShellEscapeCommand(e.config.Binary, args...)))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.config.Binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &CommandError{
			Message: errorMessage(splitLines(stderr.String()), err),
			Err:     err,
		}
	}

	var info ytdlpInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}

	return info.toVideoInfo(), nil
}

// Fetch downloads one format of url and reports progress through onProgress.
// A finished event is emitted once, after yt-dlp exits successfully.
func (e *YTDLPExtractor) Fetch(ctx context.Context, url, formatID string, onProgress domain.ProgressCallback) error {
	if onProgress == nil {
		onProgress = func(domain.ProgressEvent) {}
	}

	if err := os.MkdirAll(e.downloadDir, 0755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	args := e.fetchArgs(url, formatID)

	e.logger.Debug("Starting download",
		zap.String("url", url),
		zap.String("format_id", formatID),
		zap.String("command", ShellEscapeCommand(e.config.Binary, args...)))

	// One pipe for both streams keeps lines in emission order
	pr, pw := io.Pipe()
	cmd := exec.CommandContext(ctx, e.config.Binary, args...)
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		return &CommandError{Message: fmt.Sprintf("failed to start yt-dlp: %v", err), Err: err}
	}

	waitErr := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		pw.Close()
		waitErr <- err
	}()

	var (
		filename string
		tail     []string
	)

	sc := bufio.NewScanner(pr)
	sc.Buffer(make([]byte, 4096), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		if event, ok := parseProgressLine(line); ok {
			if event.Filename != "" {
				filename = event.Filename
			}
			// The single terminal event is emitted below, once the process has exited
			if event.Status == domain.ProgressDownloading {
				onProgress(event)
			}
			continue
		}

		if name, ok := parseFileLine(line); ok {
			filename = name
			continue
		}

		e.logger.Debug("yt-dlp output", zap.String("url", url), zap.String("line", line))
		tail = append(tail, line)
		if len(tail) > maxOutputTail {
			tail = tail[1:]
		}
	}
	if err := sc.Err(); err != nil {
		// Drain so yt-dlp does not block on a full pipe
		io.Copy(io.Discard, pr)
		e.logger.Warn("Failed to read yt-dlp output", zap.String("url", url), zap.Error(err))
	}

	if err := <-waitErr; err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &CommandError{Message: errorMessage(tail, err), Err: err}
	}

	onProgress(domain.ProgressEvent{Status: domain.ProgressFinished, Filename: filename})
	return nil
}

func (e *YTDLPExtractor) fetchArgs(url, formatID string) []string {
	args := e.baseArgs()
	return append(args,
		"-f", formatID,
		"-P", e.downloadDir,
		"-o", e.config.OutputTemplate,
		"--no-playlist",
		"--newline",
		"--progress",
		"--no-simulate",
		"--progress-template", "download:"+progressMarker+"%(progress)j",
		"--print", "after_move:"+fileMarker+"%(filepath)s",
		"--", url,
	)
}

// baseArgs returns the options shared by every invocation
func (e *YTDLPExtractor) baseArgs() []string {
	var args []string
	if e.config.CookieFile != "" && fileExists(e.config.CookieFile) {
		args = append(args, "--cookies", e.config.CookieFile)
	}
	return append(args, e.config.ExtraArgs...)
}

func splitLines(s string) []string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
