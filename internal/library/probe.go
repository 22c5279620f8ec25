package library

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/cutline/cutline-studio/internal/timeline"
)

const probeTimeout = 15 * time.Second

// Prober reads the intrinsic duration of a stored media file.
type Prober interface {
	Duration(ctx context.Context, path string, kind timeline.MediaKind) (float64, error)
}

// StubProber reports PlaceholderDuration for every file.
type StubProber struct{}

func (StubProber) Duration(ctx context.Context, path string, kind timeline.MediaKind) (float64, error) {
	return PlaceholderDuration, nil
}

// FFProbe shells out to ffprobe.
type FFProbe struct {
	binary string
	logger *slog.Logger
}

// NewFFProbe resolves binary on PATH.
func NewFFProbe(binary string, logger *slog.Logger) (*FFProbe, error) {
	if binary == "" {
		binary = "ffprobe"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("ffprobe %q not found: %w", binary, err)
	}
	return &FFProbe{binary: path, logger: logger}, nil
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (p *FFProbe) Duration(ctx context.Context, path string, kind timeline.MediaKind) (float64, error) {
	if kind == timeline.MediaImage {
		return PlaceholderDuration, nil
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var out ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	d, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration %q: %w", out.Format.Duration, err)
	}

	if p.logger != nil {
		p.logger.Debug("probed media", "duration_s", d, "elapsed_ms", time.Since(start).Milliseconds())
	}
	return d, nil
}
