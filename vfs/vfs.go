// Package vfs assembles a lazily-rendered virtual filesystem over a
// camera/audio recording container: one audio.wav entry synthesized
// up front, and one DNG entry per presentation frame slot, rendered on
// demand through a two-pool pipeline.
package vfs

import (
	"fmt"
	"path"
	"sync"

	"github.com/motioncam/mcraw-vfs/mcraw"
)

// VirtualFileSystem is the top-level façade: it owns the current
// projection (entry list + audio buffer) and the read pipeline, and
// rebuilds the projection wholesale on UpdateOptions.
type VirtualFileSystem struct {
	srcPath        string
	decoderFactory mcraw.DecoderFactory
	encoder        mcraw.DNGEncoder
	audioWriter    mcraw.AudioWriter
	ioWorkers      int

	mu         sync.RWMutex
	options    mcraw.RenderOptions
	draftScale int
	projection *Projection

	pipeline *pipeline
}

// Config bundles the external collaborators a VirtualFileSystem needs.
// mcraw.DefaultAudioWriter is a ready-to-use AudioWriter, but
// DecoderFactory and Encoder have no in-repo implementation — callers
// supply a concrete decoder/encoder or a test double.
type Config struct {
	SrcPath        string
	DecoderFactory mcraw.DecoderFactory
	Encoder        mcraw.DNGEncoder
	AudioWriter    mcraw.AudioWriter
	Options        mcraw.RenderOptions
	DraftScale     int
	// IOWorkers overrides the IO pool's worker count; 0 uses the default.
	IOWorkers int
}

// New opens cfg.SrcPath's decoder, builds the initial projection, and
// starts the read pipeline.
func New(cfg Config) (*VirtualFileSystem, error) {
	v := &VirtualFileSystem{
		srcPath:        cfg.SrcPath,
		decoderFactory: cfg.DecoderFactory,
		encoder:        cfg.Encoder,
		audioWriter:    cfg.AudioWriter,
		ioWorkers:      cfg.IOWorkers,
		options:        cfg.Options,
		draftScale:     cfg.DraftScale,
	}

	projection, err := v.rebuild(cfg.Options, cfg.DraftScale)
	if err != nil {
		return nil, err
	}
	v.projection = projection
	v.pipeline = newPipeline(cfg.SrcPath, cfg.DecoderFactory, cfg.Encoder, cfg.IOWorkers)

	return v, nil
}

func (v *VirtualFileSystem) rebuild(options mcraw.RenderOptions, draftScale int) (*Projection, error) {
	decoder, err := v.decoderFactory(v.srcPath)
	if err != nil {
		return nil, fmt.Errorf("vfs: opening decoder: %w", err)
	}
	return Build(decoder, v.encoder, v.audioWriter, options, draftScale)
}

// ListFiles returns every entry matching filter, a shell glob pattern
// (path.Match semantics) against the entry's name. An empty filter
// matches every entry.
func (v *VirtualFileSystem) ListFiles(filter string) ([]mcraw.Entry, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if filter == "" {
		out := make([]mcraw.Entry, len(v.projection.Entries))
		copy(out, v.projection.Entries)
		return out, nil
	}

	var out []mcraw.Entry
	for _, e := range v.projection.Entries {
		ok, err := path.Match(filter, e.Name)
		if err != nil {
			return nil, fmt.Errorf("vfs: invalid filter %q: %w", filter, err)
		}
		if ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// FindEntry does a linear scan for an entry by exact name.
func (v *VirtualFileSystem) FindEntry(name string) (mcraw.Entry, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	for _, e := range v.projection.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return mcraw.Entry{}, false
}

// UpdateOptions rebuilds the entire projection for a new (options,
// draftScale) pair. Concurrent reads crossing this call are not
// guaranteed consistent — callers must quiesce in-flight reads first.
func (v *VirtualFileSystem) UpdateOptions(options mcraw.RenderOptions, draftScale int) error {
	projection, err := v.rebuild(options, draftScale)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.options = options
	v.draftScale = draftScale
	v.projection = projection
	v.mu.Unlock()
	return nil
}

// ReadFile reads up to length bytes at pos from entry into dst.
//
// Static and audio entries are served synchronously and their byte count
// is the return value. Frame entries are served asynchronously: ReadFile
// returns 0 immediately and the eventual byte count (or -1 on failure)
// arrives via callback.
func (v *VirtualFileSystem) ReadFile(entry mcraw.Entry, options mcraw.RenderOptions, pos, length uint64, dst []byte, callback ReadCallback) int {
	switch entry.UserData.Kind {
	case mcraw.UserDataStatic:
		n, ok := mcraw.ReadStaticEntry(entry.Name, pos, length, dst)
		if !ok {
			callback(0, -1)
			return 0
		}
		return int(n)

	case mcraw.UserDataAudio:
		v.mu.RLock()
		buf := v.projection.AudioBuf
		v.mu.RUnlock()
		return copyRange(buf, pos, length, dst)

	default: // mcraw.UserDataTimestamp
		v.mu.RLock()
		fps := v.projection.Fps
		draftScale := v.draftScale
		v.mu.RUnlock()

		v.pipeline.readFrame(entry.UserData.Timestamp, fps, draftScale, options, pos, length, dst, callback)
		return 0
	}
}

// Close stops the read pipeline's IO workers. Frame reads already
// in-flight still complete; no new reads should be issued afterward.
func (v *VirtualFileSystem) Close() {
	v.pipeline.close()
}

// copyRange copies up to length bytes at pos from src into dst, clamped
// to both buffers' bounds — the synchronous memcpy path used for
// static/audio entries.
func copyRange(src []byte, pos, length uint64, dst []byte) int {
	if pos >= uint64(len(src)) {
		return 0
	}
	actualLen := length
	if remaining := uint64(len(src)) - pos; actualLen > remaining {
		actualLen = remaining
	}
	if actualLen > uint64(len(dst)) {
		actualLen = uint64(len(dst))
	}
	copy(dst[:actualLen], src[pos:pos+actualLen])
	return int(actualLen)
}
