// Package audio hosts a voice on a real-time output device.
//
// Each backend calls [voice.Voice.Process] from its own audio goroutine,
// once per device buffer, and copies the mono block to every output channel.
package audio

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/san-kum/stringsim/internal/voice"
)

type Backend interface {
	Start() error
	Stop() error
}

type Options struct {
	SampleRate float64
	BufferSize int
	Channels   int
	Logger     *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}

var backends = map[string]func(*voice.Voice, Options) Backend{
	"portaudio": func(v *voice.Voice, o Options) Backend { return NewPortAudio(v, o) },
	"oto":       func(v *voice.Voice, o Options) Backend { return NewOto(v, o) },
	"headless":  func(v *voice.Voice, o Options) Backend { return NewHeadless(v, o) },
}

// New returns the named backend driving v.
func New(name string, v *voice.Voice, opts Options) (Backend, error) {
	fn, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("unknown audio backend: %s (available: %v)", name, Names())
	}
	if opts.BufferSize <= 0 || opts.Channels <= 0 || !(opts.SampleRate > 0) {
		return nil, fmt.Errorf("invalid audio options: %+v", opts)
	}
	return fn(v, opts), nil
}

func Names() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// monoBlock returns buf resized to n, reallocating only when a device asks
// for more frames than it announced.
func monoBlock(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, n)
	}
	return buf[:n]
}
