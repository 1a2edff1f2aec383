package bw64

import (
	"fmt"
	"io"
)

// SeekWhence mirrors io.Seeker's whence constants, named for readability
// at Reader.Seek call sites.
type SeekWhence int

const (
	SeekBegin SeekWhence = iota
	SeekCurrent
	SeekEnd
)

// Reader is a frame-addressed façade over a parsed File's data chunk.
// Frame 0 is the first sample frame of the data chunk; a "frame" is one
// sample per channel (BlockAlignment bytes).
type Reader struct {
	file   *File
	stream io.ReadSeeker

	dataStart uint64
	frame     uint64
}

// NewReader wraps a parsed File and its backing stream for frame-addressed
// access to the data chunk.
func NewReader(file *File, stream io.ReadSeeker) (*Reader, error) {
	header, ok := file.headerByID(idData)
	if !ok {
		return nil, fmt.Errorf("%w: no data chunk header", ErrMissingMandatoryChunk)
	}
	r := &Reader{
		file:      file,
		stream:    stream,
		dataStart: header.Position + 8,
	}
	if err := r.seekFrame(0); err != nil {
		return nil, err
	}
	return r, nil
}

// FileFormat returns the fourCC of the container (RIFF, BW64 or RF64).
func (r *Reader) FileFormat() uint32 { return r.file.FileFormat }

// Channels returns the channel count.
func (r *Reader) Channels() uint16 { return r.file.fmt.ChannelCount }

// SampleRate returns the sample rate in Hz.
func (r *Reader) SampleRate() uint32 { return r.file.fmt.SampleRate }

// BitDepth returns the bits-per-sample.
func (r *Reader) BitDepth() uint16 { return r.file.fmt.BitsPerSample }

// BlockAlignment returns the number of bytes per sample frame (all
// channels).
func (r *Reader) BlockAlignment() uint16 { return r.file.fmt.BlockAlignment }

// NumberOfFrames returns the number of sample frames in the data chunk.
func (r *Reader) NumberOfFrames() uint64 {
	return r.file.data.Size / uint64(r.BlockAlignment())
}

// Seek moves the frame cursor, clamped to [0, NumberOfFrames()], and
// returns the resulting frame index.
func (r *Reader) Seek(offset int64, whence SeekWhence) (uint64, error) {
	var base int64
	switch whence {
	case SeekCurrent:
		base = int64(r.frame)
	case SeekEnd:
		base = int64(r.NumberOfFrames())
	case SeekBegin:
		base = 0
	default:
		return 0, fmt.Errorf("bw64: invalid seek whence %d", whence)
	}

	target := base + offset
	if target < 0 {
		target = 0
	}
	if max := int64(r.NumberOfFrames()); target > max {
		target = max
	}

	if err := r.seekFrame(uint64(target)); err != nil {
		return 0, err
	}
	return r.frame, nil
}

func (r *Reader) seekFrame(frame uint64) error {
	pos := r.dataStart + frame*uint64(r.BlockAlignment())
	if _, err := r.stream.Seek(int64(pos), io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	r.frame = frame
	return nil
}

// Tell returns the current frame index.
func (r *Reader) Tell() uint64 { return r.frame }

// EOF reports whether the cursor is at the end of the data chunk.
func (r *Reader) EOF() bool { return r.frame == r.NumberOfFrames() }

// Read decodes up to frames sample frames into out, which must have room
// for at least frames*Channels() values, and returns the number actually
// read (clamped to what remains). Samples are normalized floats in
// [-1, +1], except for the 16-bit path, which is intentionally left as
// the raw int16 value cast to float64 so callers that round-trip 16-bit
// PCM back out get bit-identical samples.
func (r *Reader) Read(out []float64, frames uint64) (uint64, error) {
	remaining := r.NumberOfFrames() - r.frame
	if frames > remaining {
		frames = remaining
	}
	if frames == 0 {
		return 0, nil
	}

	blockAlign := uint64(r.BlockAlignment())
	raw := make([]byte, frames*blockAlign)
	if err := readChunk(r.stream, raw, len(raw)); err != nil {
		return 0, err
	}

	numSamples := frames * uint64(r.Channels())
	if uint64(len(out)) < numSamples {
		return 0, fmt.Errorf("bw64: output buffer too small: need %d, have %d", numSamples, len(out))
	}

	bitsPerSample := r.BitDepth()
	bytesPerSample := int(bitsPerSample / 8)
	switch bitsPerSample {
	case 16:
		for i := uint64(0); i < numSamples; i++ {
			off := int(i) * bytesPerSample
			v := int16(uint16(raw[off]) | uint16(raw[off+1])<<8)
			// Intentionally not normalized by 1<<15; see doc comment above.
			out[i] = float64(v)
		}
	case 24:
		for i := uint64(0); i < numSamples; i++ {
			off := int(i) * bytesPerSample
			v := int32(uint32(raw[off+2])<<24 | uint32(raw[off+1])<<16 | uint32(raw[off])<<8)
			out[i] = float64(v) / 2147483647.0
		}
	case 32:
		for i := uint64(0); i < numSamples; i++ {
			off := int(i) * bytesPerSample
			v := int32(uint32(raw[off]) | uint32(raw[off+1])<<8 | uint32(raw[off+2])<<16 | uint32(raw[off+3])<<24)
			out[i] = float64(v) / 2147483647.0
		}
	default:
		return 0, fmt.Errorf("%w: %d bits", ErrUnsupportedBitDepth, bitsPerSample)
	}

	r.frame += frames
	return frames, nil
}
