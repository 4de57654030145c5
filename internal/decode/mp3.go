package decode

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/dgnsrekt/soundboard/internal/audio"
)

// MP3 decodes MPEG-1/2 layer III data. go-mp3 always yields signed 16-bit
// little-endian stereo.
type MP3 struct {
	TargetRate int
}

func (d MP3) Decode(ctx context.Context, data []byte) (*audio.Buffer, error) {
	dec, err := gomp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}

	var frames [][2]float64
	if n := dec.Length(); n > 0 {
		frames = make([][2]float64, 0, n/4)
	}

	chunk := make([]byte, 16*1024)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := io.ReadFull(dec, chunk)
		for i := 0; i+4 <= n; i += 4 {
			l := int16(binary.LittleEndian.Uint16(chunk[i:]))
			r := int16(binary.LittleEndian.Uint16(chunk[i+2:]))
			frames = append(frames, [2]float64{float64(l) / 32768, float64(r) / 32768})
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
		}
	}

	return toBuffer(frames, dec.SampleRate(), d.TargetRate)
}
