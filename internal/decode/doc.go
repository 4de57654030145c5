// Package decode turns raw clip bytes into playable audio buffers. It sniffs
// the container format, decodes WAV, AIFF, MP3 and Ogg Vorbis, and resamples
// the result to the output context rate.
//
// Decoders come in two shapes: a blocking Decoder and a CallbackDecoder that
// reports through success and error callbacks. Adapt wraps either shape so
// callers only ever see the Decoder contract.
package decode
