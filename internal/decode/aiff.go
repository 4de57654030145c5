package decode

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-audio/aiff"

	"github.com/dgnsrekt/soundboard/internal/audio"
)

// AIFF decodes FORM/AIFF PCM data.
type AIFF struct {
	TargetRate int
}

func (d AIFF) Decode(ctx context.Context, data []byte) (*audio.Buffer, error) {
	dec := aiff.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid aiff file", ErrInvalidData)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return intBufferToAudio(buf, int(dec.BitDepth), false, d.TargetRate)
}
