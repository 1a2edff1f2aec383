// Package mcrawmock provides deterministic test doubles for the external
// collaborators mcraw.Decoder and mcraw.DNGEncoder leave unimplemented,
// so vfs (and anything built on it) can be exercised end to end without a
// real MCRAW container or DNG codec.
package mcrawmock

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/motioncam/mcraw-vfs/mcraw"
)

// DecoderConfig configures a mock mcraw.Decoder.
type DecoderConfig struct {
	Frames            []mcraw.Timestamp
	FrameData         map[mcraw.Timestamp][]byte
	FrameMetadata     map[mcraw.Timestamp]json.RawMessage
	ContainerMetadata json.RawMessage
	AudioChunks       []mcraw.AudioChunk
	SampleRateHz      int
	Channels          int
	// OpenErr, when set, is returned by every call the resulting
	// DecoderFactory makes instead of a decoder.
	OpenErr error
}

// NewDecoderFactory returns an mcraw.DecoderFactory that always yields a
// mock decoder built from c (or c.OpenErr, if set).
func NewDecoderFactory(c DecoderConfig) mcraw.DecoderFactory {
	return func(path string) (mcraw.Decoder, error) {
		if c.OpenErr != nil {
			return nil, c.OpenErr
		}
		return mockDecoder{c: c}, nil
	}
}

type mockDecoder struct {
	c DecoderConfig
}

func (m mockDecoder) GetFrames() ([]mcraw.Timestamp, error) {
	out := make([]mcraw.Timestamp, len(m.c.Frames))
	copy(out, m.c.Frames)
	return out, nil
}

func (m mockDecoder) LoadFrame(ts mcraw.Timestamp) ([]byte, json.RawMessage, error) {
	data, ok := m.c.FrameData[ts]
	if !ok {
		return nil, nil, fmt.Errorf("mcrawmock: no frame data configured for timestamp %d", ts)
	}
	return data, m.c.FrameMetadata[ts], nil
}

func (m mockDecoder) LoadAudio() ([]mcraw.AudioChunk, error) {
	out := make([]mcraw.AudioChunk, len(m.c.AudioChunks))
	for i, chunk := range m.c.AudioChunks {
		out[i] = chunk.Clone()
	}
	return out, nil
}

func (m mockDecoder) AudioSampleRateHz() (int, error) { return m.c.SampleRateHz, nil }
func (m mockDecoder) NumAudioChannels() (int, error)  { return m.c.Channels, nil }

func (m mockDecoder) GetContainerMetadata() (json.RawMessage, error) {
	return m.c.ContainerMetadata, nil
}

// EncoderConfig configures a mock mcraw.DNGEncoder.
type EncoderConfig struct {
	// OutputSize is the fixed length of every encoded frame, honoring
	// the fixed-length-output contract mcraw.DNGEncoder documents.
	OutputSize int
	// Fill is the byte value every output buffer is filled with, useful
	// for telling frames apart by content in a test (e.g. derived from
	// frameIndex by the caller choosing a distinct config per frame).
	Fill byte
	// ReturnErr, when non-nil, is returned instead of encoded output.
	ReturnErr error
}

// NewEncoder returns an mcraw.DNGEncoder that produces deterministic,
// fixed-length output (or c.ReturnErr, if set).
func NewEncoder(c EncoderConfig) mcraw.DNGEncoder {
	return func(rawFrame []byte, frameMeta mcraw.FrameMetadata, containerMeta mcraw.ContainerMetadata, fps float64, frameIndex int, options mcraw.RenderOptions, draftScale int) ([]byte, error) {
		if c.ReturnErr != nil {
			return nil, c.ReturnErr
		}
		out := make([]byte, c.OutputSize)
		for i := range out {
			out[i] = c.Fill
		}
		return out, nil
	}
}

// NewDngEncoder is a ready-to-use 3000-byte fixed-size encoder.
var NewDngEncoder = NewEncoder(EncoderConfig{OutputSize: 3000})

// NewDngEncoderErr always fails, for exercising a VirtualFileSystem's
// frame-read error path.
var NewDngEncoderErr = NewEncoder(EncoderConfig{ReturnErr: errors.New("mcrawmock: mock encode error")})
