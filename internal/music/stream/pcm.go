// Package stream decodes a resolved audio URL to PCM with ffmpeg and sends
// Opus-encoded frames to a Discord voice connection.
package stream

import (
	"fmt"
	"io"
	"os/exec"
)

const (
	channels   = 2
	sampleRate = 48000
	frameSize  = 960 // 20ms at 48kHz
)

// OpenPCM spawns ffmpeg decoding streamURL to raw s16le 48kHz stereo PCM on
// stdout. The returned cleanup kills the process; call it when streaming
// ends for any reason.
func OpenPCM(ffmpegPath, streamURL string) (io.ReadCloser, func(), error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}

	ffmpeg := exec.Command(ffmpegPath,
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", streamURL,
		"-vn",
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", fmt.Sprintf("%d", channels),
		"-loglevel", "warning",
		"pipe:1",
	)

	reader, err := ffmpeg.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("stdout pipe error: %w", err)
	}

	if err := ffmpeg.Start(); err != nil {
		return nil, nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	cleanup := func() {
		ffmpeg.Process.Kill()
		ffmpeg.Wait()
	}

	return reader, cleanup, nil
}
