package decode

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/dgnsrekt/soundboard/internal/audio"
)

// makeWAV builds a canonical 16-bit PCM WAV file.
func makeWAV(rate, channels int, samples []int16) []byte {
	var data bytes.Buffer
	_ = binary.Write(&data, binary.LittleEndian, samples)
	return makeWAVData(1, 16, rate, channels, data.Bytes())
}

// makeWAVData builds a WAV file with the given format tag and raw sample data.
func makeWAVData(format, bits, rate, channels int, data []byte) []byte {
	var b bytes.Buffer
	le := binary.LittleEndian
	blockAlign := channels * bits / 8

	b.WriteString("RIFF")
	_ = binary.Write(&b, le, uint32(36+len(data)))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	_ = binary.Write(&b, le, uint32(16))
	_ = binary.Write(&b, le, uint16(format))
	_ = binary.Write(&b, le, uint16(channels))
	_ = binary.Write(&b, le, uint32(rate))
	_ = binary.Write(&b, le, uint32(rate*blockAlign))
	_ = binary.Write(&b, le, uint16(blockAlign))
	_ = binary.Write(&b, le, uint16(bits))
	b.WriteString("data")
	_ = binary.Write(&b, le, uint32(len(data)))
	b.Write(data)
	return b.Bytes()
}

// TestSniff tests container detection from leading bytes.
func TestSniff(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		want   Format
		wantOK bool
	}{
		{"wav", []byte("RIFF\x00\x00\x00\x00WAVEfmt "), FormatWAV, true},
		{"aiff", []byte("FORM\x00\x00\x00\x00AIFFCOMM"), FormatAIFF, true},
		{"aifc", []byte("FORM\x00\x00\x00\x00AIFCCOMM"), FormatAIFF, true},
		{"ogg", []byte("OggS\x00\x02"), FormatVorbis, true},
		{"mp3 with id3", []byte("ID3\x04\x00"), FormatMP3, true},
		{"mp3 frame sync", []byte{0xFF, 0xFB, 0x90, 0x00}, FormatMP3, true},
		{"riff but not wave", []byte("RIFF\x00\x00\x00\x00AVI LIST"), "", false},
		{"text", []byte("hello world"), "", false},
		{"empty", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Sniff(tt.data)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Sniff() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// TestWAVDecodeMono tests mono PCM expansion to stereo.
func TestWAVDecodeMono(t *testing.T) {
	samples := make([]int16, 8000)
	for i := range samples {
		samples[i] = 16384
	}
	data := makeWAV(8000, 1, samples)

	buf, err := WAV{TargetRate: 8000}.Decode(context.Background(), data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if buf.Len() != 8000 {
		t.Errorf("expected 8000 frames, got %d", buf.Len())
	}
	if math.Abs(buf.Duration()-1.0) > 1e-9 {
		t.Errorf("expected 1s duration, got %v", buf.Duration())
	}
	f := buf.Frame(100)
	if math.Abs(float64(f[0])-0.5) > 1e-6 || f[0] != f[1] {
		t.Errorf("expected duplicated 0.5 frame, got %v", f)
	}
}

// TestWAVDecodeFormats tests format tag handling.
func TestWAVDecodeFormats(t *testing.T) {
	floats := make([]float32, 800)
	for i := range floats {
		floats[i] = -0.25
	}
	var floatData bytes.Buffer
	_ = binary.Write(&floatData, binary.LittleEndian, floats)

	tests := []struct {
		name    string
		data    []byte
		want    float32
		wantErr error
	}{
		{"32-bit float", makeWAVData(3, 32, 8000, 1, floatData.Bytes()), -0.25, nil},
		{"64-bit float", makeWAVData(3, 64, 8000, 1, make([]byte, 6400)), 0, ErrUnsupportedFormat},
		{"mu-law", makeWAVData(7, 8, 8000, 1, make([]byte, 800)), 0, ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := WAV{TargetRate: 8000}.Decode(context.Background(), tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if buf.Len() != 800 {
				t.Errorf("expected 800 frames, got %d", buf.Len())
			}
			if f := buf.Frame(10); math.Abs(float64(f[0]-tt.want)) > 1e-6 {
				t.Errorf("expected %v, got %v", tt.want, f[0])
			}
		})
	}
}

// TestWAVDecodeResamples tests conversion to the output rate.
func TestWAVDecodeResamples(t *testing.T) {
	samples := make([]int16, 2*4000)
	data := makeWAV(8000, 2, samples)

	buf, err := WAV{TargetRate: 16000}.Decode(context.Background(), data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if buf.SampleRate() != 16000 {
		t.Errorf("expected 16000 Hz, got %d", buf.SampleRate())
	}
	if d := buf.Duration(); math.Abs(d-0.5) > 0.01 {
		t.Errorf("expected duration near 0.5s after resampling, got %v", d)
	}
}

// TestRegistryDecode tests dispatch and error reporting.
func TestRegistryDecode(t *testing.T) {
	r := NewRegistry(8000)

	t.Run("wav", func(t *testing.T) {
		buf, err := r.Decode(context.Background(), makeWAV(8000, 1, make([]int16, 800)))
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if math.Abs(buf.Duration()-0.1) > 1e-9 {
			t.Errorf("expected 0.1s, got %v", buf.Duration())
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := r.Decode(context.Background(), []byte("definitely not audio"))
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})

	t.Run("truncated ogg", func(t *testing.T) {
		_, err := r.Decode(context.Background(), []byte("OggS\x00\x02garbage"))
		if err == nil {
			t.Error("expected error for malformed ogg")
		}
	})

	t.Run("empty wav", func(t *testing.T) {
		_, err := r.Decode(context.Background(), makeWAV(8000, 1, nil))
		if err == nil {
			t.Error("expected error for wav without frames")
		}
	})
}

// TestRegistryRecoversPanics tests that a crashing decoder becomes an error.
func TestRegistryRecoversPanics(t *testing.T) {
	r := NewRegistry(8000)
	err := r.Register(FormatWAV, DecoderFunc(func(context.Context, []byte) (*audio.Buffer, error) {
		panic("boom")
	}))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, err = r.Decode(context.Background(), makeWAV(8000, 1, make([]int16, 10)))
	if !errors.Is(err, ErrInvalidData) {
		t.Errorf("expected ErrInvalidData from panic, got %v", err)
	}
}

type stubCallbackDecoder struct {
	buf   *audio.Buffer
	err   error
	delay time.Duration
}

func (s stubCallbackDecoder) DecodeAsync(_ []byte, onSuccess func(*audio.Buffer), onError func(error)) {
	go func() {
		time.Sleep(s.delay)
		if s.err != nil {
			onError(s.err)
			return
		}
		onSuccess(s.buf)
	}()
}

// TestAdapt tests both decoder shapes through the single Decode contract.
func TestAdapt(t *testing.T) {
	want := audio.NewBuffer(make([]audio.Frame, 10), 1000)

	t.Run("promise shape", func(t *testing.T) {
		d, err := Adapt(DecoderFunc(func(context.Context, []byte) (*audio.Buffer, error) { return want, nil }))
		if err != nil {
			t.Fatalf("adapt failed: %v", err)
		}
		got, err := d.Decode(context.Background(), nil)
		if err != nil || got != want {
			t.Errorf("Decode() = %v, %v", got, err)
		}
	})

	t.Run("callback success", func(t *testing.T) {
		d, err := Adapt(stubCallbackDecoder{buf: want})
		if err != nil {
			t.Fatalf("adapt failed: %v", err)
		}
		got, err := d.Decode(context.Background(), nil)
		if err != nil || got != want {
			t.Errorf("Decode() = %v, %v", got, err)
		}
	})

	t.Run("callback error", func(t *testing.T) {
		boom := errors.New("bad data")
		d, _ := Adapt(stubCallbackDecoder{err: boom})
		if _, err := d.Decode(context.Background(), nil); !errors.Is(err, boom) {
			t.Errorf("expected callback error, got %v", err)
		}
	})

	t.Run("callback honours context", func(t *testing.T) {
		d, _ := Adapt(stubCallbackDecoder{buf: want, delay: time.Second})
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if _, err := d.Decode(ctx, nil); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	})

	t.Run("unsupported value", func(t *testing.T) {
		if _, err := Adapt(42); !errors.Is(err, ErrUnsupportedDecoder) {
			t.Errorf("expected ErrUnsupportedDecoder, got %v", err)
		}
	})
}
