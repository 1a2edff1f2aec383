package mcraw

import (
	"encoding/json"

	"github.com/hashicorp/go-version"
)

// AudioChunk is one interleaved block of audio samples tagged with the
// container timestamp of its first sample. Length is always a multiple of
// the channel count.
type AudioChunk struct {
	Timestamp Timestamp
	Samples   []int16
}

// Clone returns a deep copy, so callers (notably audiosync.Sync) can
// mutate a chunk's sample slice without aliasing the decoder's own
// buffers.
func (c AudioChunk) Clone() AudioChunk {
	samples := make([]int16, len(c.Samples))
	copy(samples, c.Samples)
	return AudioChunk{Timestamp: c.Timestamp, Samples: samples}
}

// ContainerMetadata is the recording-wide metadata blob a Decoder exposes,
// parsed from whatever JSON document the container embeds. Its shape
// beyond the fields this package cares about is opaque and passed through
// to the DNG encoder untouched.
type ContainerMetadata struct {
	Raw json.RawMessage

	// AppVersion is the recording app's semantic version, when present.
	// Used to decide whether a container's audio layout predates the
	// single-interleaved-PCM convention.
	AppVersion *version.Version
}

// ParseContainerMetadata decodes a container metadata JSON document into a
// ContainerMetadata, best-effort parsing an "appVersion" field if present.
func ParseContainerMetadata(raw json.RawMessage) (ContainerMetadata, error) {
	meta := ContainerMetadata{Raw: raw}

	var probe struct {
		AppVersion string `json:"appVersion"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &probe); err != nil {
			return ContainerMetadata{}, err
		}
	}
	if probe.AppVersion != "" {
		v, err := version.NewVersion(probe.AppVersion)
		if err == nil {
			meta.AppVersion = v
		} else {
			logger.Debugf("mcraw: could not parse appVersion %q: %v", probe.AppVersion, err)
		}
	}
	return meta, nil
}

// legacyAudioLayoutCeiling is the first app version that stores audio as
// a single interleaved PCM stream; every earlier version uses the legacy
// layout.
var legacyAudioLayoutCeiling = version.Must(version.NewVersion("1.6.0"))

// HasLegacyAudioLayout reports whether this container predates the
// single-interleaved-PCM audio convention. Containers with no parsed
// AppVersion are assumed current (not legacy).
func (m ContainerMetadata) HasLegacyAudioLayout() bool {
	if m.AppVersion == nil {
		return false
	}
	return m.AppVersion.LessThan(legacyAudioLayoutCeiling)
}

// FrameMetadata is the per-frame metadata blob a Decoder exposes for a
// single frame, parsed from whatever JSON document the container embeds
// alongside the frame's raw payload. Its shape is opaque to this package;
// it is passed through to the DNG encoder untouched.
type FrameMetadata struct {
	Raw json.RawMessage
}

// ParseFrameMetadata wraps a frame's raw metadata JSON for passthrough to
// the DNG encoder.
func ParseFrameMetadata(raw json.RawMessage) FrameMetadata {
	return FrameMetadata{Raw: raw}
}

// Decoder is the external container decoder this package consumes. It
// has no implementation in this package: this package only depends on
// the interface, never implements it. Implementations are expected to be
// safe to call concurrently from distinct goroutines, but not safe to call
// concurrently from the *same* Decoder value without external
// synchronization — the IO pool works around this by keeping one Decoder
// per worker goroutine.
type Decoder interface {
	// GetFrames returns every frame's timestamp, in no particular order.
	GetFrames() ([]Timestamp, error)
	// LoadFrame loads a single frame's raw payload and JSON metadata.
	LoadFrame(ts Timestamp) (raw []byte, metadata json.RawMessage, err error)
	// LoadAudio loads every audio chunk in the recording.
	LoadAudio() ([]AudioChunk, error)
	// AudioSampleRateHz returns the audio track's sample rate.
	AudioSampleRateHz() (int, error)
	// NumAudioChannels returns the audio track's channel count.
	NumAudioChannels() (int, error)
	// GetContainerMetadata returns the recording-wide metadata document.
	GetContainerMetadata() (json.RawMessage, error)
}

// DecoderFactory opens a Decoder for a recording at path.
type DecoderFactory func(path string) (Decoder, error)
