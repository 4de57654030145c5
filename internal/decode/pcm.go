package decode

import (
	"fmt"

	"github.com/dgnsrekt/soundboard/internal/audio"
	"github.com/gopxl/beep"
)

// resampleQuality is the beep interpolation quality used when the clip rate
// differs from the output rate.
const resampleQuality = 4

// frameStreamer feeds decoded frames to beep.
type frameStreamer struct {
	frames [][2]float64
	pos    int
}

func (s *frameStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= len(s.frames) {
		return 0, false
	}
	n := copy(samples, s.frames[s.pos:])
	s.pos += n
	return n, true
}

func (s *frameStreamer) Err() error { return nil }

// resample converts frames from one rate to another using beep.
func resample(frames [][2]float64, from, to int) [][2]float64 {
	if from == to || len(frames) == 0 {
		return frames
	}

	r := beep.Resample(resampleQuality, beep.SampleRate(from), beep.SampleRate(to), &frameStreamer{frames: frames})
	out := make([][2]float64, 0, int(float64(len(frames))*float64(to)/float64(from))+1)
	chunk := make([][2]float64, 512)
	for {
		n, ok := r.Stream(chunk)
		out = append(out, chunk[:n]...)
		if !ok {
			break
		}
	}
	return out
}

// toBuffer resamples frames recorded at rate to target and builds a Buffer.
func toBuffer(frames [][2]float64, rate, target int) (*audio.Buffer, error) {
	if len(frames) == 0 {
		return nil, ErrEmpty
	}
	if rate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidData, rate)
	}
	if target <= 0 {
		target = rate
	}

	frames = resample(frames, rate, target)
	out := make([]audio.Frame, len(frames))
	for i, f := range frames {
		out[i] = audio.Frame{float32(f[0]), float32(f[1])}
	}
	return audio.NewBuffer(out, target), nil
}

// interleavedToFrames maps interleaved samples of any channel count onto
// stereo frames. Mono is duplicated; channels past the second are dropped.
func interleavedToFrames(samples []float64, channels int) [][2]float64 {
	if channels <= 0 {
		return nil
	}
	frames := make([][2]float64, len(samples)/channels)
	for i := range frames {
		base := i * channels
		left := samples[base]
		right := left
		if channels > 1 {
			right = samples[base+1]
		}
		frames[i] = [2]float64{left, right}
	}
	return frames
}

// intToFloat normalises integer PCM of the given bit depth to [-1, 1].
func intToFloat(data []int, bitDepth int, unsigned8 bool) []float64 {
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))
	out := make([]float64, len(data))
	for i, v := range data {
		if bitDepth == 8 && unsigned8 {
			v -= 128
		}
		out[i] = float64(v) / scale
	}
	return out
}
