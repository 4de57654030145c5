package decode

import (
	"bytes"
	"fmt"

	"github.com/jfreymuth/oggvorbis"

	"github.com/dgnsrekt/soundboard/internal/audio"
)

// Vorbis decodes Ogg Vorbis data on its own goroutine and reports through
// callbacks.
type Vorbis struct {
	TargetRate int
}

func (d Vorbis) DecodeAsync(data []byte, onSuccess func(*audio.Buffer), onError func(error)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				onError(fmt.Errorf("%w: decoder panic: %v", ErrInvalidData, r))
			}
		}()

		samples, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
		if err != nil {
			onError(fmt.Errorf("%w: %w", ErrInvalidData, err))
			return
		}

		wide := make([]float64, len(samples))
		for i, s := range samples {
			wide[i] = float64(s)
		}
		buf, err := toBuffer(interleavedToFrames(wide, format.Channels), format.SampleRate, d.TargetRate)
		if err != nil {
			onError(err)
			return
		}
		onSuccess(buf)
	}()
}
