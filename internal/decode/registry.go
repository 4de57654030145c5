package decode

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/soundboard/internal/audio"
)

// Format names a container format.
type Format string

const (
	FormatWAV    Format = "wav"
	FormatAIFF   Format = "aiff"
	FormatMP3    Format = "mp3"
	FormatVorbis Format = "ogg"
)

// Registry dispatches raw bytes to the decoder registered for their
// container format. It implements Decoder.
type Registry struct {
	mu       sync.RWMutex
	decoders map[Format]Decoder
}

// NewRegistry returns a registry with every built-in format registered,
// resampling to targetRate.
func NewRegistry(targetRate int) *Registry {
	r := &Registry{decoders: make(map[Format]Decoder)}
	_ = r.Register(FormatWAV, WAV{TargetRate: targetRate})
	_ = r.Register(FormatAIFF, AIFF{TargetRate: targetRate})
	_ = r.Register(FormatMP3, MP3{TargetRate: targetRate})
	_ = r.Register(FormatVorbis, Vorbis{TargetRate: targetRate})
	return r
}

// Register installs d for format f, replacing any previous decoder. d may be
// a Decoder or a CallbackDecoder.
func (r *Registry) Register(f Format, d any) error {
	dec, err := Adapt(d)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[f] = dec
	return nil
}

// Get returns the decoder for f.
func (r *Registry) Get(f Format) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.decoders[f]
	return d, ok
}

// Decode sniffs data and decodes it with the matching decoder. A panicking
// decoder is reported as ErrInvalidData.
func (r *Registry) Decode(ctx context.Context, data []byte) (buf *audio.Buffer, err error) {
	f, ok := Sniff(data)
	if !ok {
		return nil, ErrUnsupportedFormat
	}
	dec, ok := r.Get(f)
	if !ok {
		return nil, fmt.Errorf("%w: no decoder for %s", ErrUnsupportedFormat, f)
	}

	defer func() {
		if p := recover(); p != nil {
			buf = nil
			err = fmt.Errorf("%w: decoder panic: %v", ErrInvalidData, p)
		}
	}()

	buf, err = dec.Decode(ctx, data)
	if err != nil {
		return nil, err
	}
	log.Debug("Decoded clip", "format", f, "frames", buf.Len(), "duration", buf.Duration())
	return buf, nil
}

// Sniff identifies the container format from the leading bytes.
func Sniff(data []byte) (Format, bool) {
	switch {
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return FormatWAV, true
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("FORM")) &&
		(bytes.Equal(data[8:12], []byte("AIFF")) || bytes.Equal(data[8:12], []byte("AIFC"))):
		return FormatAIFF, true
	case len(data) >= 4 && bytes.Equal(data[:4], []byte("OggS")):
		return FormatVorbis, true
	case len(data) >= 3 && bytes.Equal(data[:3], []byte("ID3")):
		return FormatMP3, true
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		// MPEG audio frame sync
		return FormatMP3, true
	default:
		return "", false
	}
}
