package bw64

// FourCC constants for the chunk IDs this package understands. Packed
// little-endian (byte 0 is the low byte), matching the on-disk layout.
var (
	idRIFF = fourCCString("RIFF")
	idBW64 = fourCCString("BW64")
	idRF64 = fourCCString("RF64")
	idWAVE = fourCCString("WAVE")
	idDs64 = fourCCString("ds64")
	idFmt  = fourCCString("fmt ")
	idData = fourCCString("data")
	idAxml = fourCCString("axml")
	idChna = fourCCString("chna")
)

// ChunkHeader describes a chunk's id, resolved size and absolute file
// position. The payload starts at Position+8.
type ChunkHeader struct {
	ID       uint32
	Size     uint64
	Position uint64
}

// PaddedSize is Size rounded up to an even number of bytes, the length
// actually occupied on disk including the pad byte.
func (h ChunkHeader) PaddedSize() uint64 {
	if h.Size%2 != 0 {
		return h.Size + 1
	}
	return h.Size
}

// DataSize64Chunk ("ds64") overrides 32-bit chunk sizes that are either
// 0xFFFFFFFF or otherwise ambiguous in a BW64/RF64 file.
type DataSize64Chunk struct {
	BW64Size uint64
	DataSize uint64
	Dummy    uint64
	Table    map[uint32]uint64
}

// ChunkSize looks up the override for a given chunk id: BW64/RF64 ->
// BW64Size, data -> DataSize, else the table, else the caller should
// trust the 32-bit header value.
func (d *DataSize64Chunk) ChunkSize(id uint32) (uint64, bool) {
	switch id {
	case idBW64, idRF64:
		return d.BW64Size, true
	case idData:
		return d.DataSize, true
	default:
		v, ok := d.Table[id]
		return v, ok
	}
}

// ExtraData is the WAVE_FORMAT_EXTENSIBLE tail of a 40-byte fmt chunk.
type ExtraData struct {
	ValidBitsPerSample uint16
	ChannelMask        uint32
	SubFormat          uint16
	SubFormatString    [14]byte
}

// FormatInfoChunk ("fmt ") describes the PCM layout of the data chunk.
type FormatInfoChunk struct {
	FormatTag      uint16
	ChannelCount   uint16
	SampleRate     uint32
	BytesPerSecond uint32
	BlockAlignment uint16
	BitsPerSample  uint16
	ExtraData      *ExtraData
}

// formatTag values this package accepts.
const (
	formatTagPCM        uint16 = 1
	formatTagExtensible uint16 = 0xFFFE
)

// derivedBlockAlignment computes the expected block alignment from the
// channel count and bit depth.
func (f *FormatInfoChunk) derivedBlockAlignment() uint16 {
	return uint16(uint32(f.ChannelCount) * uint32(f.BitsPerSample) / 8)
}

// derivedBytesPerSecond computes the expected byte rate.
func (f *FormatInfoChunk) derivedBytesPerSecond() uint32 {
	return f.SampleRate * uint32(f.derivedBlockAlignment())
}

// DataChunk ("data") carries only its size; its payload is the PCM sample
// stream, read directly by Reader rather than buffered here.
type DataChunk struct {
	Size uint64
}

// AxmlChunk ("axml") is an opaque carrier for an ADM XML payload.
type AxmlChunk struct {
	Data string
}

// AudioID is a single entry of a ChnaChunk's track/UID table.
type AudioID struct {
	TrackIndex int16
	UID        string
	TrackRef   string
	PackRef    string
}

// ChnaChunk ("chna") is an opaque carrier for the ADM track/UID table.
type ChnaChunk struct {
	IDs []AudioID
}

// UnknownChunk is the opaque carrier for any chunk id this package doesn't
// specifically model.
type UnknownChunk struct {
	ID   uint32
	Data []byte
}
