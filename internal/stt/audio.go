package stt

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// decodeWAV returns mono samples in [-1, 1] and the source sample rate.
// A well formed header without sample data yields no samples and no error.
func decodeWAV(data []byte) ([]float32, int, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		if dec.Err() == nil && dec.NumChans >= 1 && dec.BitDepth >= 8 {
			return nil, int(dec.SampleRate), nil
		}
		if err := dec.Err(); err != nil {
			return nil, 0, fmt.Errorf("decode wav header: %w", err)
		}
		return nil, 0, errors.New("unsupported audio container, expected PCM WAV")
	}
	if dec.WavAudioFormat != 1 {
		return nil, 0, fmt.Errorf("unsupported wav encoding %d, expected PCM", dec.WavAudioFormat)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav samples: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, int(dec.SampleRate), nil
	}
	return downmix(buf.Data, int(dec.NumChans), int(dec.BitDepth)), int(dec.SampleRate), nil
}

func downmix(data []int, channels, bitDepth int) []float32 {
	if channels < 1 {
		channels = 1
	}
	scale := float32(int64(1) << (bitDepth - 1))
	frames := len(data) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			v := data[i*channels+ch]
			if bitDepth == 8 {
				v -= 128
			}
			sum += float32(v) / scale
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// resample converts samples between rates with linear interpolation.
func resample(in []float32, from, to int) []float32 {
	if from == to || from <= 0 || to <= 0 || len(in) == 0 {
		return in
	}
	n := int(int64(len(in)) * int64(to) / int64(from))
	out := make([]float32, n)
	ratio := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j+1 >= len(in) {
			out[i] = in[len(in)-1]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = in[j] + (in[j+1]-in[j])*frac
	}
	return out
}

func writeSamplesToWav(file *os.File, samples []float32, sampleRate int) error {
	data := make([]int, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		data[i] = int(s * 32767)
	}
	buffer := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	enc := wav.NewEncoder(file, sampleRate, 16, 1, 1)
	if err := enc.Write(buffer); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

// audioFilename guesses a filename for hosted APIs that infer the codec from
// the extension.
func audioFilename(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("RIFF")) && len(data) >= 12 && bytes.Equal(data[8:12], []byte("WAVE")):
		return "audio.wav"
	case bytes.HasPrefix(data, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return "audio.webm"
	case bytes.HasPrefix(data, []byte("OggS")):
		return "audio.ogg"
	case bytes.HasPrefix(data, []byte("fLaC")):
		return "audio.flac"
	case bytes.HasPrefix(data, []byte("ID3")), len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return "audio.mp3"
	case len(data) >= 8 && bytes.Equal(data[4:8], []byte("ftyp")):
		return "audio.m4a"
	default:
		return "audio.webm"
	}
}
