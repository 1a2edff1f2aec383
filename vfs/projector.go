package vfs

import (
	"fmt"
	"math"
	"sort"

	"github.com/motioncam/mcraw-vfs/audiosync"
	"github.com/motioncam/mcraw-vfs/mcraw"
)

// Projection is the built-once-per-(options, draftScale) output of the
// projector: an entry list plus the materialized audio WAV buffer and the
// computed frame rate and typical frame size everything else is derived
// from.
type Projection struct {
	Fps            float64
	TypicalDngSize uint64
	Entries        []mcraw.Entry
	AudioBuf       []byte
}

// frameRate computes a numerically stable running average of the
// inter-frame durations (nanoseconds), skipping non-positive deltas, and
// returns frames/second. Requires at least 2 frames and at least 1
// positive delta; otherwise 0.
func frameRate(frames []mcraw.Timestamp) float64 {
	if len(frames) < 2 {
		return 0
	}

	var avgDuration float64
	validFrames := 0

	for i := 1; i < len(frames); i++ {
		duration := float64(frames[i] - frames[i-1])
		if duration > 0 {
			avgDuration += (duration - avgDuration) / float64(validFrames+1)
			validFrames++
		}
	}

	if validFrames == 0 {
		return 0
	}
	return 1e9 / avgDuration
}

// frameNumberFromTimestamp maps a frame timestamp to its presentation
// slot number relative to referenceTimestamp, at the given frame rate.
// Returns -1 if fps is non-positive or timestamp precedes the reference.
func frameNumberFromTimestamp(timestamp, referenceTimestamp mcraw.Timestamp, fps float64) int64 {
	if fps <= 0 {
		return -1
	}
	timeDifference := int64(timestamp - referenceTimestamp)
	if timeDifference < 0 {
		return -1
	}
	nanosecondsPerFrame := 1e9 / fps
	return int64(math.Round(float64(timeDifference) / nanosecondsPerFrame))
}

// constructFrameFilename builds a zero-padded frame filename, e.g.
// frame-000042.dng.
func constructFrameFilename(baseName string, frameNumber int64, padding int, extension string) string {
	return fmt.Sprintf("%s%0*d.%s", baseName, padding, frameNumber, extension)
}

// scaleFromOptions returns draftScale when RenderOptDraft is set, else 1
// (full resolution).
func scaleFromOptions(options mcraw.RenderOptions, draftScale int) int {
	if options.Has(mcraw.RenderOptDraft) {
		return draftScale
	}
	return 1
}

// Build decodes a recording's frame index, probes a typical DNG size,
// synthesizes the synced audio WAV buffer, and assembles the full entry
// list. An empty frame list yields an empty Projection, not an error.
func Build(decoder mcraw.Decoder, encoder mcraw.DNGEncoder, audioWriter mcraw.AudioWriter, options mcraw.RenderOptions, draftScale int) (*Projection, error) {
	frames, err := decoder.GetFrames()
	if err != nil {
		return nil, fmt.Errorf("vfs: getting frames: %w", err)
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i] < frames[j] })

	if len(frames) == 0 {
		return &Projection{}, nil
	}

	fps := frameRate(frames)

	rawProbe, probeMetaRaw, err := decoder.LoadFrame(frames[0])
	if err != nil {
		return nil, fmt.Errorf("vfs: loading probe frame: %w", err)
	}
	containerMetaRaw, err := decoder.GetContainerMetadata()
	if err != nil {
		return nil, fmt.Errorf("vfs: loading container metadata: %w", err)
	}
	containerMeta, err := mcraw.ParseContainerMetadata(containerMetaRaw)
	if err != nil {
		return nil, fmt.Errorf("vfs: parsing container metadata: %w", err)
	}
	probeFrameMeta := mcraw.ParseFrameMetadata(probeMetaRaw)

	scale := scaleFromOptions(options, draftScale)
	dngProbe, err := encoder(rawProbe, probeFrameMeta, containerMeta, fps, 0, options, scale)
	if err != nil {
		return nil, fmt.Errorf("vfs: encoding probe frame: %w", err)
	}
	typicalDngSize := uint64(len(dngProbe))

	entries := make([]mcraw.Entry, 0, len(frames)*2)

	if mcraw.HasStaticEntries() {
		entries = append(entries, mcraw.StaticEntries()...)
	}

	audioBuf, err := buildAudio(decoder, audioWriter, containerMeta, frames[0], fps)
	if err != nil {
		return nil, fmt.Errorf("vfs: building audio: %w", err)
	}
	if len(audioBuf) > 0 {
		entries = append(entries, mcraw.Entry{
			Type: mcraw.EntryFile,
			Name: "audio.wav",
			Size: uint64(len(audioBuf)),
			UserData: mcraw.UserData{
				Kind: mcraw.UserDataAudio,
			},
		})
	}

	lastPts := int64(-1)
	for _, ts := range frames {
		pts := frameNumberFromTimestamp(ts, frames[0], fps)

		for lastPts < pts {
			lastPts++
			entries = append(entries, mcraw.Entry{
				Type: mcraw.EntryFile,
				Name: constructFrameFilename("frame-", lastPts, 6, "dng"),
				Size: typicalDngSize,
				UserData: mcraw.UserData{
					Kind:      mcraw.UserDataTimestamp,
					Timestamp: ts,
				},
			})
		}
	}

	return &Projection{
		Fps:            fps,
		TypicalDngSize: typicalDngSize,
		Entries:        entries,
		AudioBuf:       audioBuf,
	}, nil
}

// buildAudio loads every audio chunk, synchronizes it to the first video
// frame, upmixes it if the container predates interleaved multi-channel
// audio, and serializes the result into a WAV buffer. An empty/absent
// audio track yields a nil buffer, not an error.
func buildAudio(decoder mcraw.Decoder, audioWriter mcraw.AudioWriter, containerMeta mcraw.ContainerMetadata, videoT0 mcraw.Timestamp, fps float64) ([]byte, error) {
	chunks, err := decoder.LoadAudio()
	if err != nil {
		return nil, fmt.Errorf("loading audio: %w", err)
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	sampleRate, err := decoder.AudioSampleRateHz()
	if err != nil {
		return nil, fmt.Errorf("reading audio sample rate: %w", err)
	}
	channels, err := decoder.NumAudioChannels()
	if err != nil {
		return nil, fmt.Errorf("reading audio channel count: %w", err)
	}

	if containerMeta.HasLegacyAudioLayout() && channels > 1 {
		chunks = upmixLegacyMono(chunks, channels)
	}

	synced := audiosync.Sync(videoT0, chunks, sampleRate, channels)

	totalSamples := 0
	for _, c := range synced {
		totalSamples += len(c.Samples)
	}
	flat := make([]int16, 0, totalSamples)
	for _, c := range synced {
		flat = append(flat, c.Samples...)
	}

	buf := &seekBuffer{}
	if err := audioWriter.WriteAudio(buf, sampleRate, channels, flat); err != nil {
		return nil, fmt.Errorf("encoding audio wav: %w", err)
	}
	return buf.bytes, nil
}

// upmixLegacyMono duplicates each mono sample across channels, turning a
// single-channel chunk into an interleaved multi-channel one. Recordings
// from before the single-interleaved-PCM convention store every channel
// as the same mono stream, so duplication (rather than splitting a wider
// stream) is the correct upmix here.
func upmixLegacyMono(chunks []mcraw.AudioChunk, channels int) []mcraw.AudioChunk {
	out := make([]mcraw.AudioChunk, len(chunks))
	for i, c := range chunks {
		interleaved := make([]int16, len(c.Samples)*channels)
		for s, sample := range c.Samples {
			base := s * channels
			for ch := 0; ch < channels; ch++ {
				interleaved[base+ch] = sample
			}
		}
		out[i] = mcraw.AudioChunk{Timestamp: c.Timestamp, Samples: interleaved}
	}
	return out
}
