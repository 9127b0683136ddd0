package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/resolvarr/resolvarr/internal/capability"
	"github.com/resolvarr/resolvarr/internal/httpclient"
	"github.com/resolvarr/resolvarr/internal/resolver"
)

var (
	resolveUpstream string
	resolvePlatform string
	resolveMediaURL string
	resolveJSON     bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <infoHash> [fileIdx]",
	Short: "Resolve a playable URL for a torrent file",
	Long: `Resolve a playable URL for a torrent file on a streaming server.

Probes the media on the streaming server and prints either a direct
stream URL or an HLS transcoding URL, depending on whether the target
platform can play the media as-is.

Examples:

  resolvarr resolve 6a9b1c2d3e4f5a6b7c8d9e0f1a2b3c4d5e6f7a8b
  resolvarr resolve 6a9b1c2d3e4f5a6b7c8d9e0f1a2b3c4d5e6f7a8b 2 --platform ios`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVar(&resolveUpstream, "upstream", "http://localhost:11470", "Streaming server base URL")
	resolveCmd.Flags().StringVar(&resolvePlatform, "platform", "web", "Playback platform (ios, android, web)")
	resolveCmd.Flags().StringVar(&resolveMediaURL, "media-url", "", "Probe this media URL instead of the direct stream URL")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "Output the result as JSON")
}

func runResolve(cmd *cobra.Command, args []string) error {
	infoHash := args[0]
	fileIdx := resolver.DefaultFileIndex
	if len(args) == 2 {
		idx, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid file index %q: %w", args[1], err)
		}
		fileIdx = idx
	}

	res := resolver.New(resolveUpstream).
		WithPlatform(capability.ParsePlatform(resolvePlatform)).
		WithHTTPClient(httpclient.NewWithDefaults()).
		WithLogger(slog.Default())

	ctx := context.Background()

	var result resolver.StreamResult
	if resolveMediaURL != "" {
		result = res.GetStreamingURL(ctx, resolveMediaURL)
	} else {
		result = res.GetStream(ctx, infoHash, fileIdx)
	}

	if resolveJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("URL:         %s\n", result.URL)
	fmt.Printf("Server:      %s\n", result.ServerType)
	fmt.Printf("Transcoding: %t\n", result.NeedsTranscoding)
	if result.Reason != "" {
		fmt.Printf("Reason:      %s\n", result.Reason)
	}
	return nil
}
