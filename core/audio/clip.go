package audio

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Clip is decoded PCM audio with interleaved 16-bit samples.
type Clip struct {
	SampleRate int
	Channels   int
	Samples    []int16
}

func (c Clip) frames() int {
	if c.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.frames()) * time.Second / time.Duration(c.SampleRate)
}

// Encode converts the clip into the given mono output encoding. Channels are
// averaged and the sample rate is converted by linear interpolation.
func (c Clip) Encode(target EncodingInfo) ([]byte, error) {
	if target.IsZero() {
		target = GetDefaultEncodingInfo()
	}
	if target.Format != EncodingLinear16 {
		return nil, fmt.Errorf("%w: cannot encode to %s", ErrUnsupportedFormat, target.Format.Name())
	}
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return nil, fmt.Errorf("%w: invalid clip layout (%d Hz, %d channels)", ErrUnsupportedFormat, c.SampleRate, c.Channels)
	}

	mono := c.downmix()
	if c.SampleRate != target.SampleRate {
		mono = resample(mono, c.SampleRate, target.SampleRate)
	}

	out := make([]byte, len(mono)*2)
	for i, sample := range mono {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}
	return out, nil
}

func (c Clip) downmix() []int16 {
	if c.Channels == 1 {
		return c.Samples
	}

	frames := c.frames()
	mono := make([]int16, frames)
	for i := range frames {
		sum := 0
		for ch := range c.Channels {
			sum += int(c.Samples[i*c.Channels+ch])
		}
		mono[i] = int16(sum / c.Channels)
	}
	return mono
}

func resample(samples []int16, from, to int) []int16 {
	if len(samples) == 0 || from == to {
		return samples
	}

	n := int(int64(len(samples)) * int64(to) / int64(from))
	out := make([]int16, n)
	step := float64(from) / float64(to)
	for i := range n {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = int16(float64(samples[idx])*(1-frac) + float64(samples[idx+1])*frac)
	}
	return out
}

// PCM16Clip wraps raw little-endian mono linear16 audio.
func PCM16Clip(pcm []byte, sampleRate int) Clip {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return Clip{SampleRate: sampleRate, Channels: 1, Samples: samples}
}
