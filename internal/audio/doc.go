// Package audio provides the shared audio output context for the soundboard:
// a small audio graph of buffer sources and gain nodes with scheduled value
// ramps, rendered to the sound device through oto/v3.
package audio
