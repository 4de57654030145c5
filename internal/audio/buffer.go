package audio

// Frame is one stereo sample pair.
type Frame [2]float32

// Buffer holds decoded stereo frames at a fixed sample rate.
// A Buffer is never mutated after construction and may be shared by any
// number of sources.
type Buffer struct {
	frames     []Frame
	sampleRate int
}

// NewBuffer wraps frames recorded at sampleRate. The slice is owned by the
// buffer afterwards.
func NewBuffer(frames []Frame, sampleRate int) *Buffer {
	return &Buffer{frames: frames, sampleRate: sampleRate}
}

// Len returns the number of frames.
func (b *Buffer) Len() int { return len(b.frames) }

// SampleRate returns the rate the frames were recorded at.
func (b *Buffer) SampleRate() int { return b.sampleRate }

// Frame returns the frame at index i.
func (b *Buffer) Frame(i int) Frame { return b.frames[i] }

// Duration returns the natural length of the buffer in seconds.
func (b *Buffer) Duration() float64 {
	if b.sampleRate <= 0 {
		return 0
	}
	return float64(len(b.frames)) / float64(b.sampleRate)
}

// Size returns the in-memory size of the decoded samples in bytes.
func (b *Buffer) Size() int64 {
	return int64(len(b.frames)) * 8
}
