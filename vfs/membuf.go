package vfs

// seekBuffer is an in-memory io.WriteSeeker, the shape mcraw.AudioWriter
// needs to back-patch a WAV's RIFF/data chunk sizes once everything has
// been written, without touching the filesystem.
type seekBuffer struct {
	bytes []byte
	pos   int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	end := b.pos + len(p)
	if end > len(b.bytes) {
		grown := make([]byte, end)
		copy(grown, b.bytes)
		b.bytes = grown
	}
	copy(b.bytes[b.pos:end], p)
	b.pos = end
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case 0:
		base = 0
	case 1:
		base = int64(b.pos)
	case 2:
		base = int64(len(b.bytes))
	}
	b.pos = int(base + offset)
	return int64(b.pos), nil
}
