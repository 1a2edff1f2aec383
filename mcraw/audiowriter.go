package mcraw

import (
	"io"

	"github.com/motioncam/mcraw-vfs/bw64"
)

// AudioWriter serializes a recording's synchronized audio track to a WAV
// container. The VirtualFileSystem is the only caller: it always writes
// the whole audio.wav in one call, so the interface has no incremental
// write/seek surface.
type AudioWriter interface {
	WriteAudio(w io.WriteSeeker, sampleRateHz, channels int, samples []int16) error
}

// DefaultAudioWriter is a ready-to-use AudioWriter for callers to pass in
// a VirtualFileSystem's Config. It writes a standard PCM WAV file via the
// bw64 package's encoder.
type DefaultAudioWriter struct{}

// WriteAudio implements AudioWriter.
func (DefaultAudioWriter) WriteAudio(w io.WriteSeeker, sampleRateHz, channels int, samples []int16) error {
	return bw64.EncodeWAV(w, sampleRateHz, channels, samples)
}
