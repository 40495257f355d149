package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strconv"
)

// DurationExtractor reads the play length of an audio blob in whole
// seconds by probing just its metadata with ffprobe.
type DurationExtractor struct {
	ffprobePath string
}

// NewDurationExtractor creates a DurationExtractor using the given
// ffprobe binary.
func NewDurationExtractor(ffprobePath string) *DurationExtractor {
	return &DurationExtractor{ffprobePath: ffprobePath}
}

// ffprobeOutput defines the structure of ffprobe's JSON output.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Extract spools the blob to a throwaway temp file, probes it and
// returns the duration rounded to the nearest second. The temp file is
// removed on success and on every failure path. All parse/probe
// failures surface as *DecodeError; the caller must not upload an
// asset whose duration is unknown.
func (e *DurationExtractor) Extract(ctx context.Context, r io.Reader) (int, error) {
	tmp, err := os.CreateTemp("", "probe-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file for probe: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	n, err := io.Copy(tmp, r)
	if err != nil {
		return 0, fmt.Errorf("failed to spool audio blob: %w", err)
	}
	if n == 0 {
		return 0, &DecodeError{Err: fmt.Errorf("empty audio input")}
	}

	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		tmp.Name(),
	}

	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, &DecodeError{Err: fmt.Errorf("ffprobe failed: %w: %s", err, stderr.String())}
	}

	var probeData ffprobeOutput
	if err := json.Unmarshal(out.Bytes(), &probeData); err != nil {
		return 0, &DecodeError{Err: fmt.Errorf("failed to parse ffprobe output: %w", err)}
	}

	if probeData.Format.Duration == "" {
		return 0, &DecodeError{Err: fmt.Errorf("no duration in ffprobe output")}
	}

	seconds, err := strconv.ParseFloat(probeData.Format.Duration, 64)
	if err != nil {
		return 0, &DecodeError{Err: fmt.Errorf("failed to parse duration %q: %w", probeData.Format.Duration, err)}
	}

	return RoundSeconds(seconds), nil
}

// RoundSeconds rounds a fractional duration to the nearest whole second.
func RoundSeconds(seconds float64) int {
	return int(math.Round(seconds))
}
