package decode

import (
	"bytes"
	"context"
	"fmt"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/dgnsrekt/soundboard/internal/audio"
)

// WAVE format tags
const (
	wavFormatPCM        = 1
	wavFormatIEEEFloat  = 3
	wavFormatExtensible = 0xFFFE
)

// WAV decodes RIFF/WAVE integer PCM and 32-bit IEEE float data.
type WAV struct {
	TargetRate int
}

func (d WAV) Decode(ctx context.Context, data []byte) (*audio.Buffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid wav file", ErrInvalidData)
	}

	switch dec.WavAudioFormat {
	case wavFormatPCM, wavFormatExtensible:
	case wavFormatIEEEFloat:
		if dec.BitDepth != 32 {
			return nil, fmt.Errorf("%w: %d-bit float wav", ErrUnsupportedFormat, dec.BitDepth)
		}
	default:
		return nil, fmt.Errorf("%w: wav format tag %#x", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if dec.WavAudioFormat == wavFormatIEEEFloat {
		return floatBufferToAudio(buf, d.TargetRate)
	}
	// 8-bit WAV is stored unsigned
	return intBufferToAudio(buf, int(dec.BitDepth), true, d.TargetRate)
}

// floatBufferToAudio reinterprets 32-bit samples the wav decoder read as
// integers back into IEEE floats.
func floatBufferToAudio(buf *goaudio.IntBuffer, target int) (*audio.Buffer, error) {
	if buf == nil || buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil, fmt.Errorf("%w: missing format information", ErrInvalidData)
	}
	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float64(math.Float32frombits(uint32(int32(v)))) //nolint:gosec
	}
	frames := interleavedToFrames(samples, buf.Format.NumChannels)
	return toBuffer(frames, buf.Format.SampleRate, target)
}

func intBufferToAudio(buf *goaudio.IntBuffer, bitDepth int, unsigned8 bool, target int) (*audio.Buffer, error) {
	if buf == nil || buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil, fmt.Errorf("%w: missing format information", ErrInvalidData)
	}
	samples := intToFloat(buf.Data, bitDepth, unsigned8)
	frames := interleavedToFrames(samples, buf.Format.NumChannels)
	return toBuffer(frames, buf.Format.SampleRate, target)
}
