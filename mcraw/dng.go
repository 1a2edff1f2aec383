package mcraw

import "errors"

// ErrDngEncodeFailed is returned by a DNGEncoder when it cannot honor its
// fixed-length-output contract for the given (options, draftScale) pair.
var ErrDngEncodeFailed = errors.New("mcraw: dng encode failed")

// DNGEncoder renders a single decoded frame plus its metadata into a DNG
// file's raw bytes. It has no implementation in this package: callers
// supply a concrete encoder (a CGo binding, a subprocess shell-out, or a
// test double) and this package only depends on the function type.
//
// For a fixed (options, draftScale) pair, a DNGEncoder MUST always
// produce output of the same length for frames from the same recording.
// The projector probes this length once per recording generation and
// trusts it for every subsequent frame; an encoder that cannot uphold
// this MUST return ErrDngEncodeFailed rather than silently produce a
// mismatched length.
type DNGEncoder func(rawFrame []byte, frameMeta FrameMetadata, containerMeta ContainerMetadata, fps float64, frameIndex int, options RenderOptions, draftScale int) ([]byte, error)
