package decode

import (
	"context"
	"fmt"

	"github.com/dgnsrekt/soundboard/internal/audio"
)

// Decoder decodes a complete clip and returns when done.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (*audio.Buffer, error)
}

// CallbackDecoder decodes in the background and reports through exactly one
// of the two callbacks.
type CallbackDecoder interface {
	DecodeAsync(data []byte, onSuccess func(*audio.Buffer), onError func(error))
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(ctx context.Context, data []byte) (*audio.Buffer, error)

// Decode calls f(ctx, data).
func (f DecoderFunc) Decode(ctx context.Context, data []byte) (*audio.Buffer, error) {
	return f(ctx, data)
}

// Adapt probes d for a supported decoder shape and returns it as a Decoder.
// A value implementing both shapes is used as a Decoder directly.
func Adapt(d any) (Decoder, error) {
	switch v := d.(type) {
	case Decoder:
		return v, nil
	case CallbackDecoder:
		return callbackAdapter{cb: v}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedDecoder, d)
	}
}

type callbackAdapter struct {
	cb CallbackDecoder
}

type decodeResult struct {
	buf *audio.Buffer
	err error
}

func (a callbackAdapter) Decode(ctx context.Context, data []byte) (*audio.Buffer, error) {
	// Buffered so a late callback after ctx is done never blocks.
	ch := make(chan decodeResult, 1)
	deliver := func(r decodeResult) {
		select {
		case ch <- r:
		default:
		}
	}

	a.cb.DecodeAsync(data,
		func(buf *audio.Buffer) { deliver(decodeResult{buf: buf}) },
		func(err error) { deliver(decodeResult{err: err}) },
	)

	select {
	case r := <-ch:
		return r.buf, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
