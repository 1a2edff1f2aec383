package bw64

import (
	"fmt"
	"io"
)

// File is a parsed RIFF/BW64/RF64 WAVE file: every chunk header that was
// walked, plus the decoded mandatory/known chunks. The payload of the
// "data" chunk is never buffered in memory here; Reader seeks and reads it
// directly from the backing stream on demand.
type File struct {
	FileFormat uint32
	Headers    []ChunkHeader

	ds64 *DataSize64Chunk
	fmt  *FormatInfoChunk
	data *DataChunk
	axml *AxmlChunk
	chna *ChnaChunk
	unk  []UnknownChunk
}

// Ds64 returns the ds64 chunk, or nil if this is a plain RIFF file.
func (f *File) Ds64() *DataSize64Chunk { return f.ds64 }

// Format returns the fmt chunk. Never nil on a successfully parsed File.
func (f *File) Format() *FormatInfoChunk { return f.fmt }

// Data returns the data chunk descriptor. Never nil on a successfully
// parsed File.
func (f *File) Data() *DataChunk { return f.data }

// Axml returns the axml chunk, or nil if absent.
func (f *File) Axml() *AxmlChunk { return f.axml }

// Chna returns the chna chunk, or nil if absent.
func (f *File) Chna() *ChnaChunk { return f.chna }

// Unknown returns every chunk this package doesn't specifically model.
func (f *File) Unknown() []UnknownChunk { return f.unk }

// headerByID returns the first walked header with the given id.
func (f *File) headerByID(id uint32) (ChunkHeader, bool) {
	for _, h := range f.Headers {
		if h.ID == id {
			return h, true
		}
	}
	return ChunkHeader{}, false
}

// Parse decodes a RIFF/BW64/RF64 WAVE file from r. r must also support
// io.Seeker, since chunk parsers rebase the stream per chunk and the
// reader façade built on top seeks into the data chunk.
//
// Any malformed input is fatal for the whole file: there is no partial
// acceptance.
func Parse(r io.ReadSeeker) (*File, error) {
	f := &File{}

	var riffType uint32
	var fileSize uint32
	if err := readValue(r, &f.FileFormat); err != nil {
		return nil, fmt.Errorf("reading file format: %w", err)
	}
	if err := readValue(r, &fileSize); err != nil {
		return nil, fmt.Errorf("reading file size: %w", err)
	}
	if err := readValue(r, &riffType); err != nil {
		return nil, fmt.Errorf("reading riff type: %w", err)
	}

	if f.FileFormat != idRIFF && f.FileFormat != idBW64 && f.FileFormat != idRF64 {
		return nil, fmt.Errorf("%w: unrecognized file format %q", ErrInvalidFormat, fourCCToString(f.FileFormat))
	}
	if riffType != idWAVE {
		return nil, fmt.Errorf("%w: riff type %q is not WAVE", ErrInvalidFormat, fourCCToString(riffType))
	}

	isBW64 := f.FileFormat == idBW64 || f.FileFormat == idRF64

	if isBW64 {
		header, err := parseChunkHeader(r, f.ds64)
		if err != nil {
			return nil, fmt.Errorf("reading first chunk header: %w", err)
		}
		if header.ID != idDs64 {
			return nil, fmt.Errorf("%w: first chunk is %q, not ds64", ErrMissingDs64, fourCCToString(header.ID))
		}
		ds64, err := parseDs64Payload(r, header)
		if err != nil {
			return nil, fmt.Errorf("parsing ds64 chunk: %w", err)
		}
		f.ds64 = ds64
		f.Headers = append(f.Headers, header)
		logger.Debugf("bw64: parsed ds64: bw64Size=%d dataSize=%d table=%v", ds64.BW64Size, ds64.DataSize, ds64.Table)
	}

	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: seeking to end: %v", ErrIO, err)
	}

	// After the 12-byte RIFF header, and past ds64 (header + padded
	// payload) if this is a BW64/RF64 file.
	pos := uint64(12)
	if isBW64 {
		pos = f.Headers[0].Position + 8 + f.Headers[0].PaddedSize()
	}
	for pos+8 <= uint64(end) {
		if _, err := r.Seek(int64(pos), io.SeekStart); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIO, err)
		}
		header, err := parseChunkHeader(r, f.ds64)
		if err != nil {
			return nil, fmt.Errorf("reading chunk header at 0x%x: %w", pos, err)
		}

		chunkEnd, err := safeAddU64(header.Position+8, header.PaddedSize())
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %q size overflow", ErrOverflow, fourCCToString(header.ID))
		}
		if chunkEnd > uint64(end) {
			return nil, fmt.Errorf("%w: chunk %q at 0x%x extends past end of file", ErrTruncatedChunk, fourCCToString(header.ID), header.Position)
		}

		f.Headers = append(f.Headers, header)
		logger.Debugf("bw64: chunk %q at 0x%x size=%d", fourCCToString(header.ID), header.Position, header.Size)

		if header.ID != idDs64 {
			if err := parseChunkPayload(f, r, header); err != nil {
				return nil, fmt.Errorf("parsing chunk %q: %w", fourCCToString(header.ID), err)
			}
		}

		pos = chunkEnd
	}

	if f.fmt == nil {
		return nil, fmt.Errorf("%w: no fmt chunk", ErrMissingMandatoryChunk)
	}
	if f.data == nil {
		return nil, fmt.Errorf("%w: no data chunk", ErrMissingMandatoryChunk)
	}

	return f, nil
}

// parseChunkHeader reads an 8-byte chunk header at the stream's current
// position and resolves its size against ds64 (if present): BW64/RF64
// take BW64Size, data takes DataSize, any other id takes its ds64 table
// entry (keyed by chunk ID) when one exists, and otherwise the 32-bit
// header size is kept. An override applies whatever the 32-bit value is.
func parseChunkHeader(r io.ReadSeeker, ds64 *DataSize64Chunk) (ChunkHeader, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return ChunkHeader{}, fmt.Errorf("%w: %v", ErrIO, err)
	}

	var id uint32
	var size32 uint32
	if err := readValue(r, &id); err != nil {
		return ChunkHeader{}, err
	}
	if err := readValue(r, &size32); err != nil {
		return ChunkHeader{}, err
	}

	size := uint64(size32)
	if ds64 != nil {
		if override, ok := ds64.ChunkSize(id); ok {
			size = override
		}
	}

	return ChunkHeader{ID: id, Size: size, Position: uint64(pos)}, nil
}

// parseDs64Payload parses the ds64 chunk body: a 28-byte fixed head,
// tableLength 12-byte entries, then junk. The stream must be positioned
// right after the 8-byte chunk header on entry.
func parseDs64Payload(r io.ReadSeeker, header ChunkHeader) (*DataSize64Chunk, error) {
	const headerLength = 28
	const tableEntryLength = 12
	if header.Size < headerLength {
		return nil, fmt.Errorf("%w: ds64 chunk size %d too small", ErrSanityCheckFailed, header.Size)
	}

	d := &DataSize64Chunk{Table: map[uint32]uint64{}}
	if err := readValue(r, &d.BW64Size); err != nil {
		return nil, err
	}
	if err := readValue(r, &d.DataSize); err != nil {
		return nil, err
	}
	if err := readValue(r, &d.Dummy); err != nil {
		return nil, err
	}
	var tableLength uint32
	if err := readValue(r, &tableLength); err != nil {
		return nil, err
	}

	minSize := uint64(headerLength) + uint64(tableLength)*tableEntryLength
	if header.Size < minSize {
		return nil, fmt.Errorf("%w: ds64 chunk too short for its table", ErrSanityCheckFailed)
	}

	for i := uint32(0); i < tableLength; i++ {
		var id uint32
		var size uint64
		if err := readValue(r, &id); err != nil {
			return nil, err
		}
		if err := readValue(r, &size); err != nil {
			return nil, err
		}
		d.Table[id] = size
	}

	// Skip any trailing junk up to the chunk's declared (padded) size.
	junk := header.PaddedSize() - minSize
	if junk > 0 {
		if _, err := r.Seek(int64(junk), io.SeekCurrent); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIO, err)
		}
	}
	return d, nil
}

// parseChunkPayload rebases the stream to header.Position+8 and dispatches
// to the appropriate payload parser.
func parseChunkPayload(f *File, r io.ReadSeeker, header ChunkHeader) error {
	if _, err := r.Seek(int64(header.Position+8), io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	switch header.ID {
	case idFmt:
		chunk, err := parseFormatInfoChunk(r, header.Size)
		if err != nil {
			return err
		}
		f.fmt = chunk
	case idData:
		f.data = &DataChunk{Size: header.Size}
	case idAxml:
		buf := make([]byte, header.Size)
		if err := readChunk(r, buf, int(header.Size)); err != nil {
			return err
		}
		f.axml = &AxmlChunk{Data: string(buf)}
	case idChna:
		chunk, err := parseChnaChunk(r, header.Size)
		if err != nil {
			return err
		}
		f.chna = chunk
	default:
		buf := make([]byte, header.Size)
		if err := readChunk(r, buf, int(header.Size)); err != nil {
			return err
		}
		f.unk = append(f.unk, UnknownChunk{ID: header.ID, Data: buf})
	}
	return nil
}

// parseFormatInfoChunk parses a "fmt " chunk and enforces its derived-field
// sanity checks (BlockAlign and AvgBytesPerSec must agree with the sample
// rate, channel count, and bit depth).
func parseFormatInfoChunk(r io.ReadSeeker, size uint64) (*FormatInfoChunk, error) {
	if size != 16 && size != 18 && size != 40 {
		return nil, fmt.Errorf("%w: illegal fmt chunk size %d", ErrSanityCheckFailed, size)
	}

	f := &FormatInfoChunk{}
	if err := readValue(r, &f.FormatTag); err != nil {
		return nil, err
	}
	if err := readValue(r, &f.ChannelCount); err != nil {
		return nil, err
	}
	if err := readValue(r, &f.SampleRate); err != nil {
		return nil, err
	}
	if err := readValue(r, &f.BytesPerSecond); err != nil {
		return nil, err
	}
	if err := readValue(r, &f.BlockAlignment); err != nil {
		return nil, err
	}
	if err := readValue(r, &f.BitsPerSample); err != nil {
		return nil, err
	}

	var cbSize uint16
	if size > 16 {
		if err := readValue(r, &cbSize); err != nil {
			return nil, err
		}
	}
	if size > 18 && cbSize > 0 {
		extra, err := parseExtraData(r)
		if err != nil {
			return nil, err
		}
		f.ExtraData = extra
	}
	if cbSize != 0 && cbSize != 22 {
		return nil, fmt.Errorf("%w: unsupported cbSize %d", ErrSanityCheckFailed, cbSize)
	}

	if f.FormatTag != formatTagPCM && f.FormatTag != formatTagExtensible {
		return nil, fmt.Errorf("%w: format tag 0x%x", ErrUnsupportedFormatTag, f.FormatTag)
	}
	if f.FormatTag == formatTagExtensible {
		if f.ExtraData == nil {
			return nil, fmt.Errorf("%w: missing extra data for WAVE_FORMAT_EXTENSIBLE", ErrSanityCheckFailed)
		}
		if f.ExtraData.SubFormat != formatTagPCM {
			return nil, fmt.Errorf("%w: sub-format 0x%x", ErrUnsupportedFormatTag, f.ExtraData.SubFormat)
		}
	}

	if got := f.derivedBlockAlignment(); got != f.BlockAlignment {
		return nil, fmt.Errorf("%w: blockAlignment is %d but should be %d", ErrSanityCheckFailed, f.BlockAlignment, got)
	}
	if got := f.derivedBytesPerSecond(); got != f.BytesPerSecond {
		return nil, fmt.Errorf("%w: bytesPerSecond is %d but should be %d", ErrSanityCheckFailed, f.BytesPerSecond, got)
	}

	return f, nil
}

func parseExtraData(r io.ReadSeeker) (*ExtraData, error) {
	e := &ExtraData{}
	if err := readValue(r, &e.ValidBitsPerSample); err != nil {
		return nil, err
	}
	if err := readValue(r, &e.ChannelMask); err != nil {
		return nil, err
	}
	if err := readValue(r, &e.SubFormat); err != nil {
		return nil, err
	}
	if err := readValue(r, &e.SubFormatString); err != nil {
		return nil, err
	}
	return e, nil
}

func parseChnaChunk(r io.ReadSeeker, size uint64) (*ChnaChunk, error) {
	if size < 4 {
		return nil, fmt.Errorf("%w: illegal chna chunk size %d", ErrSanityCheckFailed, size)
	}

	var numTracks, numUIDs uint16
	if err := readValue(r, &numTracks); err != nil {
		return nil, err
	}
	if err := readValue(r, &numUIDs); err != nil {
		return nil, err
	}

	c := &ChnaChunk{}
	for i := uint16(0); i < numUIDs; i++ {
		var trackIndex int16
		var uid [12]byte
		var trackRef [14]byte
		var packRef [11]byte
		if err := readValue(r, &trackIndex); err != nil {
			return nil, err
		}
		if err := readValue(r, &uid); err != nil {
			return nil, err
		}
		if err := readValue(r, &trackRef); err != nil {
			return nil, err
		}
		if err := readValue(r, &packRef); err != nil {
			return nil, err
		}
		// Skip the single padding byte after each 39-byte entry.
		if _, err := r.Seek(1, io.SeekCurrent); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIO, err)
		}
		c.IDs = append(c.IDs, AudioID{
			TrackIndex: trackIndex,
			UID:        string(uid[:]),
			TrackRef:   string(trackRef[:]),
			PackRef:    string(packRef[:]),
		})
	}

	if len(c.IDs) != int(numUIDs) {
		return nil, fmt.Errorf("%w: numUIDs mismatch", ErrSanityCheckFailed)
	}
	return c, nil
}
