package bw64

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/rand"
	"testing"
)

// buildRIFFWav builds a minimal RIFF/WAVE file with a single fmt chunk
// and a data chunk of the given raw bytes.
func buildRIFFWav(t *testing.T, channels, sampleRate, bitsPerSample uint16, data []byte) []byte {
	t.Helper()
	blockAlign := channels * bitsPerSample / 8
	bytesPerSec := uint32(sampleRate) * uint32(blockAlign)

	buf := new(bytes.Buffer)
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(data)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, channels)
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, bytesPerSec)
	binary.Write(buf, binary.LittleEndian, blockAlign)
	binary.Write(buf, binary.LittleEndian, bitsPerSample)

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
	if len(data)%2 != 0 {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

// buildBW64WithDs64Override builds a BW64 file whose fmt chunk's block
// alignment matches the real data length, but whose data chunk's 32-bit
// header size is the BW64 sentinel 0xFFFFFFFF; the real size is only
// discoverable via the ds64 table.
func buildBW64WithDs64Override(t *testing.T, channels uint16, sampleRate uint32, bitsPerSample uint16, dataSize uint64) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	buf.WriteString("BW64")
	binary.Write(buf, binary.LittleEndian, uint32(0xFFFFFFFF))
	buf.WriteString("WAVE")

	ds64 := new(bytes.Buffer)
	binary.Write(ds64, binary.LittleEndian, uint64(0))        // bw64Size (unused here)
	binary.Write(ds64, binary.LittleEndian, dataSize)          // dataSize override
	binary.Write(ds64, binary.LittleEndian, uint64(0))         // dummy
	binary.Write(ds64, binary.LittleEndian, uint32(0))         // tableLength == 0
	buf.WriteString("ds64")
	binary.Write(buf, binary.LittleEndian, uint32(ds64.Len()))
	buf.Write(ds64.Bytes())

	blockAlign := channels * bitsPerSample / 8
	bytesPerSec := uint32(sampleRate) * uint32(blockAlign)
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, channels)
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, bytesPerSec)
	binary.Write(buf, binary.LittleEndian, blockAlign)
	binary.Write(buf, binary.LittleEndian, bitsPerSample)

	// The data chunk's own header declares the sentinel size. All
	// dataSize bytes of payload are materialized, so callers should use a
	// small dataSize rather than the multi-gigabyte S2 scenario.
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(0xFFFFFFFF))
	payload := make([]byte, dataSize)
	buf.Write(payload)
	if dataSize%2 != 0 {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

func TestParse_S1_PlainRIFF(t *testing.T) {
	data := make([]byte, 4*2) // 2 frames of stereo 16-bit
	raw := buildRIFFWav(t, 2, 48000, 16, data)

	f, err := Parse(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.Format().ChannelCount != 2 {
		t.Errorf("channels = %d, want 2", f.Format().ChannelCount)
	}
	if f.Format().BitsPerSample != 16 {
		t.Errorf("bitDepth = %d, want 16", f.Format().BitsPerSample)
	}
	reader, err := NewReader(f, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if got, want := reader.NumberOfFrames(), uint64(len(data))/uint64(reader.BlockAlignment()); got != want {
		t.Errorf("numberOfFrames = %d, want %d", got, want)
	}
}

func TestParse_S2_Ds64Override(t *testing.T) {
	// Small enough to actually allocate in the test, but still exercises
	// the override path: a mono/24-bit file whose 32-bit data size is the
	// BW64 sentinel and whose real size only comes from ds64.dataSize.
	const channels, bits = uint16(1), uint16(24)
	const dataSize = uint64(3 * 100) // 100 frames of mono 24-bit
	raw := buildBW64WithDs64Override(t, channels, 96000, bits, dataSize)

	f, err := Parse(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reader, err := NewReader(f, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	wantFrames := dataSize / uint64(reader.BlockAlignment())
	if got := reader.NumberOfFrames(); got != wantFrames {
		t.Errorf("numberOfFrames = %d, want %d", got, wantFrames)
	}
}

func TestParse_TruncatedChunkIsFatal(t *testing.T) {
	data := make([]byte, 8)
	raw := buildRIFFWav(t, 1, 8000, 16, data)

	// Lie about the data chunk's size so it claims to extend past EOF.
	truncated := make([]byte, len(raw))
	copy(truncated, raw)
	sizeOffset := len(raw) - len(data) - 4
	binary.LittleEndian.PutUint32(truncated[sizeOffset:], uint32(len(data)+1000))

	_, err := Parse(bytes.NewReader(truncated))
	if !errors.Is(err, ErrTruncatedChunk) {
		t.Fatalf("err = %v, want ErrTruncatedChunk", err)
	}
}

func TestParse_MissingMandatoryChunk(t *testing.T) {
	buf := new(bytes.Buffer)
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(4))
	buf.WriteString("WAVE")

	_, err := Parse(bytes.NewReader(buf.Bytes()))
	if !errors.Is(err, ErrMissingMandatoryChunk) {
		t.Fatalf("err = %v, want ErrMissingMandatoryChunk", err)
	}
}

func TestParse_BW64WithoutDs64IsFatal(t *testing.T) {
	buf := new(bytes.Buffer)
	buf.WriteString("BW64")
	binary.Write(buf, binary.LittleEndian, uint32(100))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	buf.Write(make([]byte, 16))

	_, err := Parse(bytes.NewReader(buf.Bytes()))
	if !errors.Is(err, ErrMissingDs64) {
		t.Fatalf("err = %v, want ErrMissingDs64", err)
	}
}

func TestParse_FuzzNeverCrashes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		n := rng.Intn(256)
		buf := make([]byte, n)
		rng.Read(buf)
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Parse panicked on random input (len=%d): %v", n, r)
				}
			}()
			_, _ = Parse(bytes.NewReader(buf))
		}()
	}
}

func TestFormatInfoChunk_SanityCheckFailure(t *testing.T) {
	data := make([]byte, 4)
	raw := buildRIFFWav(t, 2, 48000, 16, data)

	// Corrupt the stored blockAlignment field (offset: RIFF(12)+fmt
	// header(8)+formatTag(2)+channels(2)+sampleRate(4)+bytesPerSec(4) = 32).
	corrupted := make([]byte, len(raw))
	copy(corrupted, raw)
	binary.LittleEndian.PutUint16(corrupted[32:], 99)

	_, err := Parse(bytes.NewReader(corrupted))
	if !errors.Is(err, ErrSanityCheckFailed) {
		t.Fatalf("err = %v, want ErrSanityCheckFailed", err)
	}
}
