// Package audiosync aligns a recording's audio chunks to its first video
// frame, the way a BWF bext time reference would if the container stored
// one directly.
package audiosync

import (
	"math"

	"github.com/motioncam/mcraw-vfs/mcraw"
)

// nsPerMs converts a millisecond duration into the package's nanosecond
// Timestamp unit.
const nsPerMs = 1_000_000

// roundHalfAwayFromZero rounds x to the nearest integer, ties rounding
// away from zero.
func roundHalfAwayFromZero(x float64) float64 {
	if x < 0 {
		return -math.Floor(-x + 0.5)
	}
	return math.Floor(x + 0.5)
}

// Sync adjusts chunks in place so its first sample aligns to videoT0, and
// returns the adjusted slice. chunks must be sorted ascending by
// Timestamp; sampleRate and channels describe every chunk's PCM layout.
//
// When audio starts after the video (drift > 0), the audio head is
// trimmed to pull it earlier. When audio starts at or before the video,
// a silence chunk is prepended and every existing chunk is shifted later.
// Either way the returned sequence's first sample lines up with videoT0.
func Sync(videoT0 mcraw.Timestamp, chunks []mcraw.AudioChunk, sampleRateHz, channels int) []mcraw.AudioChunk {
	if len(chunks) == 0 || sampleRateHz <= 0 || channels <= 0 {
		return chunks
	}

	driftMs := float64(chunks[0].Timestamp-videoT0) * 1e-6

	if driftMs > 0 {
		return trimHead(chunks, driftMs, sampleRateHz, channels)
	}
	return prependSilence(videoT0, chunks, -driftMs, sampleRateHz, channels)
}

// trimHead removes driftMs worth of audio from the front of chunks, the
// case where the audio starts after the (earlier-starting) video.
func trimHead(chunks []mcraw.AudioChunk, driftMs float64, sampleRateHz, channels int) []mcraw.AudioChunk {
	framesToRemove := int(roundHalfAwayFromZero(driftMs * float64(sampleRateHz) / 1000))
	samplesToRemove := framesToRemove * channels

	out := make([]mcraw.AudioChunk, 0, len(chunks))
	removed := 0
	for i, chunk := range chunks {
		if removed >= samplesToRemove {
			out = append(out, chunks[i:]...)
			break
		}

		remaining := samplesToRemove - removed
		if len(chunk.Samples) <= remaining {
			removed += len(chunk.Samples)
			continue
		}

		trimmed := chunk.Clone()
		trimmed.Samples = append([]int16(nil), trimmed.Samples[remaining:]...)

		// advanceMs is computed in milliseconds, then converted to
		// nanoseconds before being added onto the nanosecond Timestamp.
		framesTrimmed := remaining / channels
		advanceMs := float64(framesTrimmed) * 1000 / float64(sampleRateHz)
		trimmed.Timestamp += mcraw.Timestamp(advanceMs * nsPerMs)

		out = append(out, trimmed)
		out = append(out, chunks[i+1:]...)
		removed = samplesToRemove
		break
	}
	return out
}

// prependSilence inserts a zero-filled chunk at videoT0 covering
// silenceDurationMs of audio, and shifts every existing chunk's timestamp
// later by the same duration, the case where the audio starts at or before
// the (later-starting) video.
func prependSilence(videoT0 mcraw.Timestamp, chunks []mcraw.AudioChunk, silenceDurationMs float64, sampleRateHz, channels int) []mcraw.AudioChunk {
	silenceFrames := int(roundHalfAwayFromZero(silenceDurationMs * float64(sampleRateHz) / 1000))
	silenceSamples := silenceFrames * channels

	out := make([]mcraw.AudioChunk, 0, len(chunks)+1)
	out = append(out, mcraw.AudioChunk{
		Timestamp: videoT0,
		Samples:   make([]int16, silenceSamples),
	})

	// Convert silenceDurationMs to nanoseconds before applying the shift.
	shift := mcraw.Timestamp(silenceDurationMs * nsPerMs)
	for _, chunk := range chunks {
		shifted := chunk.Clone()
		shifted.Timestamp += shift
		out = append(out, shifted)
	}
	return out
}
