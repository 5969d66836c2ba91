package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bwmarrin/discordgo"
	"layeh.com/gopus"
)

// ErrStopped reports that the stream was halted by the stop channel rather
// than reaching its natural end.
var ErrStopped = errors.New("stream stopped")

// Send reads PCM from stream, encodes 20ms Opus frames and pushes them to
// the voice connection until the stream ends or stop is closed. While paused
// reports true no frames are sent and the speaking indicator is off.
func Send(pcm io.ReadCloser, vc *discordgo.VoiceConnection, stop <-chan struct{}, paused func() bool) error {
	encoder, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return fmt.Errorf("encoder error: %w", err)
	}

	defer pcm.Close()

	vc.Speaking(true)
	defer vc.Speaking(false)

	pcmBuf := make([]byte, frameSize*channels*2)
	intBuf := make([]int16, frameSize*channels)
	speaking := true

	for {
		select {
		case <-stop:
			return ErrStopped
		default:
		}

		if paused != nil && paused() {
			if speaking {
				vc.Speaking(false)
				speaking = false
			}
			select {
			case <-stop:
				return ErrStopped
			case <-time.After(20 * time.Millisecond):
			}
			continue
		}
		if !speaking {
			vc.Speaking(true)
			speaking = true
		}

		_, err := io.ReadFull(pcm, pcmBuf)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil // natural end of track
		}
		if err != nil {
			return fmt.Errorf("pcm read error: %w", err)
		}

		for i := range intBuf {
			intBuf[i] = int16(binary.LittleEndian.Uint16(pcmBuf[i*2 : i*2+2]))
		}

		opus, err := encoder.Encode(intBuf, frameSize, len(pcmBuf))
		if err != nil {
			return fmt.Errorf("opus encode error: %w", err)
		}

		select {
		case <-stop:
			return ErrStopped
		case vc.OpusSend <- opus:
		}
	}
}
