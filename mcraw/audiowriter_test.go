package mcraw

import (
	"bytes"
	"testing"

	"github.com/motioncam/mcraw-vfs/bw64"
)

type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	end := m.pos + len(p)
	if end > len(m.buf) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case 0:
		base = 0
	case 1:
		base = int64(m.pos)
	case 2:
		base = int64(len(m.buf))
	}
	m.pos = int(base + offset)
	return int64(m.pos), nil
}

func TestDefaultAudioWriter_WriteAudio(t *testing.T) {
	w := &memWriteSeeker{}
	var writer AudioWriter = DefaultAudioWriter{}

	samples := []int16{1, 2, 3, 4}
	if err := writer.WriteAudio(w, 48000, 2, samples); err != nil {
		t.Fatalf("WriteAudio: %v", err)
	}
	if len(w.buf) == 0 {
		t.Fatalf("expected non-empty output buffer")
	}

	// Sanity-check it round-trips through the bw64 parser.
	f, err := bw64.Parse(bytes.NewReader(w.buf))
	if err != nil {
		t.Fatalf("bw64.Parse: %v", err)
	}
	if f.Format().ChannelCount != 2 {
		t.Errorf("channels = %d, want 2", f.Format().ChannelCount)
	}
}
