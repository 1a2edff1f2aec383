package vfs

import (
	"sync"
	"testing"
	"time"

	"github.com/motioncam/mcraw-vfs/mcraw"
	"github.com/motioncam/mcraw-vfs/mcrawmock"
)

// TestReadFile_FrameRead checks that reading [1024, 1024+2048) from a
// 3000-byte frame entry delivers (1976, 0) via callback, clamped to the
// remaining bytes.
func TestReadFile_FrameRead(t *testing.T) {
	frames := []mcraw.Timestamp{0, 33_333_333}
	v := newTestVFS(t, frames, 0)

	entry, ok := v.FindEntry("frame-000000.dng")
	if !ok {
		t.Fatalf("frame-000000.dng not found")
	}
	if entry.Size != 3000 {
		t.Fatalf("entry.Size = %d, want 3000", entry.Size)
	}

	dst := make([]byte, 2048)
	done := make(chan struct {
		n    int
		code int
	}, 1)
	n := v.ReadFile(entry, 0, 1024, 2048, dst, func(bytesCopied, errorCode int) {
		done <- struct {
			n    int
			code int
		}{bytesCopied, errorCode}
	})
	if n != 0 {
		t.Fatalf("synchronous return = %d, want 0 (frame reads are async)", n)
	}

	select {
	case result := <-done:
		if result.n != 1976 || result.code != 0 {
			t.Fatalf("callback = (%d, %d), want (1976, 0)", result.n, result.code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame read callback")
	}
}

// TestReadFile_ConcurrentFrameReads issues more concurrent frame reads
// than the IO pool has workers, and checks every one eventually
// completes successfully — the pipeline must queue excess work rather
// than drop or deadlock it.
func TestReadFile_ConcurrentFrameReads(t *testing.T) {
	const numFrames = 20
	frames := make([]mcraw.Timestamp, numFrames)
	for i := range frames {
		frames[i] = mcraw.Timestamp(i * 33_333_333)
	}
	v := newTestVFS(t, frames, 0)

	entries, err := v.ListFiles("*.dng")
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(entries) != numFrames {
		t.Fatalf("len(entries) = %d, want %d", len(entries), numFrames)
	}

	var wg sync.WaitGroup
	results := make([]int, len(entries))
	codes := make([]int, len(entries))
	for i, entry := range entries {
		wg.Add(1)
		i, entry := i, entry
		dst := make([]byte, 3000)
		v.ReadFile(entry, 0, 0, 3000, dst, func(bytesCopied, errorCode int) {
			defer wg.Done()
			results[i] = bytesCopied
			codes[i] = errorCode
		})
	}

	waitCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for concurrent frame reads")
	}

	for i := range entries {
		if codes[i] != 0 || results[i] != 3000 {
			t.Errorf("entry %d: (bytesCopied, errorCode) = (%d, %d), want (3000, 0)", i, results[i], codes[i])
		}
	}
}

func TestReadFile_AudioSync(t *testing.T) {
	frames := []mcraw.Timestamp{0, 48_000_000}
	decoderFactory := mcrawmock.NewDecoderFactory(mcrawmock.DecoderConfig{
		Frames: frames,
		FrameData: map[mcraw.Timestamp][]byte{
			0:          {1},
			48_000_000: {2},
		},
		ContainerMetadata: []byte(`{}`),
		SampleRateHz:      48000,
		Channels:          1,
		AudioChunks: []mcraw.AudioChunk{
			{Timestamp: 0, Samples: []int16{1, 2, 3, 4}},
		},
	})

	v, err := New(Config{
		SrcPath:        "test.mcraw",
		DecoderFactory: decoderFactory,
		Encoder:        mcrawmock.NewDngEncoder,
		AudioWriter:    mcraw.DefaultAudioWriter{},
		Options:        0,
		DraftScale:     4,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(v.Close)

	audioEntry, ok := v.FindEntry("audio.wav")
	if !ok {
		t.Fatalf("audio.wav entry not found")
	}
	if audioEntry.Size == 0 {
		t.Fatalf("audio.wav entry has zero size")
	}

	dst := make([]byte, audioEntry.Size)
	n := v.ReadFile(audioEntry, 0, 0, audioEntry.Size, dst, func(int, int) {
		t.Fatal("audio reads are synchronous, callback should not fire")
	})
	if uint64(n) != audioEntry.Size {
		t.Fatalf("synchronous return = %d, want %d", n, audioEntry.Size)
	}
}
