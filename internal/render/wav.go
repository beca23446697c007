package render

import (
	"errors"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const bitDepth = 16

// WriteWAV encodes samples as 16-bit PCM, duplicating each sample across
// channels. Values outside [-1, 1] are clipped.
func WriteWAV(w io.WriteSeeker, samples []float64, sampleRate, channels int) error {
	if channels < 1 {
		return errors.New("render: channels must be positive")
	}
	enc := wav.NewEncoder(w, sampleRate, bitDepth, channels, 1)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: bitDepth,
		Data:           make([]int, len(samples)*channels),
	}
	const full = 1<<(bitDepth-1) - 1
	for i, x := range samples {
		if math.IsNaN(x) {
			x = 0
		}
		x = math.Max(-1, math.Min(1, x))
		v := int(math.Round(x * full))
		for c := 0; c < channels; c++ {
			buf.Data[i*channels+c] = v
		}
	}

	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

// WriteWAVFile writes samples to a new file at path. The file is closed
// before returning and a close failure is reported.
func WriteWAVFile(path string, samples []float64, sampleRate, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteWAV(f, samples, sampleRate, channels); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadWAV decodes the first channel of a PCM WAV stream into [-1, 1].
func ReadWAV(r io.ReadSeeker) ([]float64, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, errors.New("render: not a valid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	full := float64(int(1)<<(dec.BitDepth-1) - 1)
	out := make([]float64, len(buf.Data)/channels)
	for i := range out {
		out[i] = float64(buf.Data[i*channels]) / full
	}
	return out, buf.Format.SampleRate, nil
}
