package convert

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/rs/zerolog"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/drtvd/errutil"
)

const DefaultFFmpegPath = "ffmpeg"

// FFmpeg remuxes downloaded stream payloads into container files.
type FFmpeg struct {
	path   string
	logger zerolog.Logger
}

func New(path string, logger zerolog.Logger) *FFmpeg {
	if path == "" {
		path = DefaultFFmpegPath
	}
	return &FFmpeg{path: path, logger: logger}
}

func args(outPath string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel",
		"error",
		"-protocol_whitelist",
		"http,https,tcp,tls,crypto,pipe",
		"-i",
		"pipe:0",
		"-c",
		"copy",
		outPath,
	}
}

// Convert feeds payload to ffmpeg on stdin and writes the stream-copied result to outPath.
func (c *FFmpeg) Convert(ctx context.Context, payload []byte, outPath string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.path, args(outPath)...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stderr = &stderr

	c.logger.Debug().Str("cmd", cmd.String()).Int("payload_size", len(payload)).Msg("Running ffmpeg")
	if err := cmd.Run(); nil != err {
		if errutil.IsContext(ctx) {
			return ctx.Err()
		}
		flawP := flaw.P{
			"err_debug_tree": errutil.Tree(err).FlawP(),
			"cmd":            cmd.String(),
			"stderr":         stderr.String(),
		}
		return flaw.From(fmt.Errorf("failed to convert payload: %v", err)).Append(flawP)
	}
	return nil
}
