package bw64

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the standard PCM format tag for the WAV fmt chunk.
const wavFormatPCM = 1

// EncodeWAV serializes interleaved 16-bit PCM samples into a standard WAV
// file written to w, which must also support Seek (the go-audio encoder
// back-patches the RIFF/data chunk sizes once everything has been
// written). This is the audio encoder the projector delegates to when
// synthesizing the container's single audio.wav entry.
func EncodeWAV(w io.WriteSeeker, sampleRate, channels int, samples []int16) error {
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		SourceBitDepth: 16,
		Data:           make([]int, len(samples)),
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}

	enc := wav.NewEncoder(w, sampleRate, 16, channels, wavFormatPCM)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("bw64: encoding wav payload: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("bw64: closing wav encoder: %w", err)
	}
	return nil
}
