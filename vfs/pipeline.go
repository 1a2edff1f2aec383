package vfs

import (
	"errors"
	"fmt"

	"github.com/motioncam/mcraw-vfs/mcraw"
)

// ErrFrameNotFound is returned (via the read callback's error code) when a
// frame entry's bound timestamp can't be located in the decoder's
// timestamp list anymore.
var ErrFrameNotFound = errors.New("vfs: frame not found")

// ReadCallback receives the outcome of an asynchronous frame read:
// bytesCopied, and 0 on success or -1 on any failure.
type ReadCallback func(bytesCopied int, errorCode int)

type frameDecodeResult struct {
	frameIndex    int
	containerMeta mcraw.ContainerMetadata
	frameMeta     mcraw.FrameMetadata
	raw           []byte
	err           error
}

// pipeline runs the two-stage async frame read: an IO-pool decode stage
// feeding a processing-pool encode stage, chained through a one-shot
// result channel.
type pipeline struct {
	srcPath        string
	decoderFactory mcraw.DecoderFactory
	encoder        mcraw.DNGEncoder
	io             *ioPool
	processing     *processingPool
}

func newPipeline(srcPath string, decoderFactory mcraw.DecoderFactory, encoder mcraw.DNGEncoder, ioWorkers int) *pipeline {
	return &pipeline{
		srcPath:        srcPath,
		decoderFactory: decoderFactory,
		encoder:        encoder,
		io:             newIOPool(ioWorkers),
		processing:     newProcessingPool(),
	}
}

func (p *pipeline) close() {
	p.io.close()
}

// readFrame submits the decode/encode chain for a single frame read and
// returns immediately; the result arrives via callback. fps and
// draftScale are the projection's values as of the moment this read was
// issued; a concurrent UpdateOptions call makes no consistency promise
// against reads already in flight.
func (p *pipeline) readFrame(timestamp mcraw.Timestamp, fps float64, draftScale int, options mcraw.RenderOptions, pos, length uint64, dst []byte, callback ReadCallback) {
	resultCh := make(chan frameDecodeResult, 1)

	p.io.submit(func(decoders map[string]mcraw.Decoder) {
		resultCh <- p.decodeFrame(decoders, timestamp)
	})

	p.processing.submit(func() {
		decoded := <-resultCh
		bytesCopied, errorCode := p.encodeAndCopy(decoded, fps, draftScale, options, pos, length, dst)
		callback(bytesCopied, errorCode)
	})
}

func (p *pipeline) decodeFrame(decoders map[string]mcraw.Decoder, timestamp mcraw.Timestamp) frameDecodeResult {
	decoder, ok := decoders[p.srcPath]
	if !ok {
		d, err := p.decoderFactory(p.srcPath)
		if err != nil {
			return frameDecodeResult{err: fmt.Errorf("opening decoder: %w", err)}
		}
		decoders[p.srcPath] = d
		decoder = d
	}

	frames, err := decoder.GetFrames()
	if err != nil {
		return frameDecodeResult{err: fmt.Errorf("listing frames: %w", err)}
	}
	frameIndex := -1
	for i, t := range frames {
		if t == timestamp {
			frameIndex = i
			break
		}
	}
	if frameIndex < 0 {
		logger.Errorf("vfs: frame %d not found", timestamp)
		return frameDecodeResult{err: ErrFrameNotFound}
	}

	raw, metaRaw, err := decoder.LoadFrame(timestamp)
	if err != nil {
		return frameDecodeResult{err: fmt.Errorf("loading frame: %w", err)}
	}
	containerRaw, err := decoder.GetContainerMetadata()
	if err != nil {
		return frameDecodeResult{err: fmt.Errorf("loading container metadata: %w", err)}
	}
	containerMeta, err := mcraw.ParseContainerMetadata(containerRaw)
	if err != nil {
		return frameDecodeResult{err: fmt.Errorf("parsing container metadata: %w", err)}
	}

	return frameDecodeResult{
		frameIndex:    frameIndex,
		containerMeta: containerMeta,
		frameMeta:     mcraw.ParseFrameMetadata(metaRaw),
		raw:           raw,
	}
}

// encodeAndCopy renders the decoded frame to DNG and copies the
// requested byte range into dst. It reports (0, -1) on any decode/encode
// failure, and only reports success (errorCode 0) when pos actually
// falls within the encoded output; an out-of-range pos is treated as a
// failure rather than a successful zero-byte read.
func (p *pipeline) encodeAndCopy(decoded frameDecodeResult, fps float64, draftScale int, options mcraw.RenderOptions, pos, length uint64, dst []byte) (int, int) {
	if decoded.err != nil {
		logger.Errorf("vfs: failed to read frame: %v", decoded.err)
		return 0, -1
	}

	scale := scaleFromOptions(options, draftScale)
	dngData, err := p.encoder(decoded.raw, decoded.frameMeta, decoded.containerMeta, fps, decoded.frameIndex, options, scale)
	if err != nil {
		logger.Errorf("vfs: failed to encode frame: %v", err)
		return 0, -1
	}

	if pos >= uint64(len(dngData)) {
		return 0, -1
	}

	actualLen := length
	if remaining := uint64(len(dngData)) - pos; actualLen > remaining {
		actualLen = remaining
	}
	if actualLen > uint64(len(dst)) {
		actualLen = uint64(len(dst))
	}
	copy(dst[:actualLen], dngData[pos:pos+actualLen])
	return int(actualLen), 0
}
