package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/san-kum/stringsim/internal/voice"
)

// PortAudio plays through the default PortAudio output device.
type PortAudio struct {
	voice *voice.Voice
	opts  Options

	mu     sync.Mutex
	stream *portaudio.Stream
	mono   []float32
}

func NewPortAudio(v *voice.Voice, opts Options) *PortAudio {
	return &PortAudio{
		voice: v,
		opts:  opts,
		mono:  make([]float32, opts.BufferSize),
	}
}

func (p *PortAudio) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream != nil {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(0, p.opts.Channels, p.opts.SampleRate, p.opts.BufferSize, p.process)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("portaudio open: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("portaudio start: %w", err)
	}

	p.stream = stream
	p.opts.logger().Info("audio started", "backend", "portaudio",
		"rate", p.opts.SampleRate, "buffer", p.opts.BufferSize, "channels", p.opts.Channels)
	return nil
}

func (p *PortAudio) process(out [][]float32) {
	if len(out) == 0 {
		return
	}
	p.mono = monoBlock(p.mono, len(out[0]))
	p.voice.Process(p.mono)
	for _, ch := range out {
		copy(ch, p.mono)
	}
}

func (p *PortAudio) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		return nil
	}

	err := p.stream.Stop()
	if cerr := p.stream.Close(); err == nil {
		err = cerr
	}
	p.stream = nil
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	p.opts.logger().Info("audio stopped", "backend", "portaudio")
	return err
}
