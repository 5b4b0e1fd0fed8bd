package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/yourusername/ytgrab-go/internal/domain"
)

const pollInterval = time.Second

var (
	serverURL   string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:           "ytgrab",
		Short:         "ytgrab CLI - fetch videos through a ytgrab server",
		Long:          `A command-line client for the ytgrab server: inspect formats, start downloads, follow progress and fetch finished files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:5000", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(fetchCmd)
}

// client checks the server is up, starting it unless --no-auto-start is set
func client(cmd *cobra.Command) *apiClient {
	if !noAutoStart {
		if err := ensureServerRunning(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
		}
	}
	return newAPIClient(strings.TrimRight(serverURL, "/"))
}

var infoCmd = &cobra.Command{
	Use:   "info [url]",
	Short: "Show video details and available formats",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := client(cmd).VideoInfo(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printVideoInfo(cmd.OutOrStdout(), info)
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download [url]",
	Short: "Start downloading one format of a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatID, _ := cmd.Flags().GetString("format")
		jobID, _ := cmd.Flags().GetString("id")
		watch, _ := cmd.Flags().GetBool("watch")
		if jobID == "" {
			jobID = uuid.NewString()
		}

		c := client(cmd)
		req := domain.JobRequest{URL: args[0], FormatID: formatID, JobID: jobID}
		if err := c.StartDownload(cmd.Context(), req); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Download started\n")
		fmt.Fprintf(out, "ID: %s\n", jobID)
		if !watch {
			return nil
		}
		return watchProgress(cmd.Context(), out, c, jobID, pollInterval)
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress [id]",
	Short: "Show the progress of a download",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client(cmd)
		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			return watchProgress(cmd.Context(), cmd.OutOrStdout(), c, args[0], pollInterval)
		}

		view, err := c.Progress(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printProgress(cmd.OutOrStdout(), view)
		return nil
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [filename]",
	Short: "Save a finished download locally",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("output")

		path, err := client(cmd).Fetch(cmd.Context(), args[0], dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringP("format", "f", "", "Format ID (see 'ytgrab info')")
	downloadCmd.Flags().String("id", "", "Job ID used to follow progress (default: random UUID)")
	downloadCmd.Flags().BoolP("watch", "w", false, "Follow progress until the download ends")
	downloadCmd.MarkFlagRequired("format")
	progressCmd.Flags().BoolP("watch", "w", false, "Follow progress until the download ends")
	fetchCmd.Flags().StringP("output", "o", ".", "Directory to save the file in")
}

func printVideoInfo(out io.Writer, info *domain.VideoInfo) {
	fmt.Fprintf(out, "Title:    %s\n", info.Title)
	fmt.Fprintf(out, "Channel:  %s\n", info.Channel)
	fmt.Fprintf(out, "Duration: %s\n", info.Duration)
	fmt.Fprintf(out, "Views:    %d\n", info.ViewCount)
	if info.UploadDate != "" {
		fmt.Fprintf(out, "Uploaded: %s\n", info.UploadDate)
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FORMAT\tTYPE\tQUALITY\tSIZE")
	for _, f := range info.Formats {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.FormatID, f.Type, f.Quality, formatSize(f.Filesize))
	}
	w.Flush()
}

func formatProgress(v progressView) string {
	switch {
	case v.failed():
		return "Failed: " + v.Error
	case v.Percent == nil:
		return "No progress yet"
	case v.completed():
		if v.Filename != "" {
			return "Completed: " + v.Filename
		}
		return "Completed"
	default:
		return fmt.Sprintf("%5.1f%%  %s/s  ETA %ds", *v.Percent, formatSize(int64(v.Speed)), v.ETA)
	}
}

// formatSize renders a byte count with binary units, "-" when unknown
func formatSize(bytes int64) string {
	if bytes <= 0 {
		return "-"
	}
	return fmt.Sprintf("% .1f", decor.SizeB1024(bytes))
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
