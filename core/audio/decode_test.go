package audio

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"
)

func pcmOf(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}
	return out
}

func TestDecodeWAVReadsEncodedPCM(t *testing.T) {
	payload := EncodeWAV(pcmOf(1, -2, 3, -4), 16000)

	clip, err := Decode(payload)
	if err != nil {
		t.Fatalf("expected wav to decode, got %v", err)
	}
	if clip.SampleRate != 16000 || clip.Channels != 1 {
		t.Fatalf("expected 16000 Hz mono clip, got %d Hz %d channels", clip.SampleRate, clip.Channels)
	}
	if len(clip.Samples) != 4 || clip.Samples[1] != -2 || clip.Samples[3] != -4 {
		t.Fatalf("unexpected samples %v", clip.Samples)
	}
}

func TestDecodeRejectsUnknownPayload(t *testing.T) {
	_, err := Decode([]byte(`{"error":"quota exceeded"}`))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
}

func TestDecodeWAVRejectsNonPCM(t *testing.T) {
	payload := EncodeWAV(pcmOf(1, 2), 8000)
	binary.LittleEndian.PutUint16(payload[20:22], 3) // IEEE float

	if _, err := Decode(payload); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected non-PCM wav to be rejected, got %v", err)
	}
}

func TestIsMP3DetectsID3AndFrameSync(t *testing.T) {
	if !isMP3([]byte("ID3\x04\x00")) {
		t.Fatalf("expected ID3 header to be detected as mp3")
	}
	if !isMP3([]byte{0xFF, 0xFB, 0x90}) {
		t.Fatalf("expected frame sync to be detected as mp3")
	}
	if isMP3([]byte("<html>")) {
		t.Fatalf("expected html not to be detected as mp3")
	}
}

func TestClipEncodeDownmixesAndResamples(t *testing.T) {
	clip := Clip{SampleRate: 32000, Channels: 2, Samples: []int16{100, 300, 100, 300, 100, 300, 100, 300}}

	out, err := clip.Encode(EncodingInfo{SampleRate: 16000, Format: EncodingLinear16})
	if err != nil {
		t.Fatalf("expected encode to succeed, got %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("expected 2 resampled mono samples, got %d bytes", len(out))
	}
	if got := int16(binary.LittleEndian.Uint16(out[0:2])); got != 200 {
		t.Fatalf("expected downmixed sample 200, got %d", got)
	}
}

func TestClipEncodeRejectsCompandedTargets(t *testing.T) {
	clip := Clip{SampleRate: 8000, Channels: 1, Samples: []int16{1}}
	if _, err := clip.Encode(EncodingInfo{SampleRate: 8000, Format: EncodingMulaw}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected mulaw target to be rejected, got %v", err)
	}
}

func TestEncodingInfoDuration(t *testing.T) {
	info := GetDefaultEncodingInfo()
	if got := info.Duration(32000); got != time.Second {
		t.Fatalf("expected one second for 32000 bytes, got %v", got)
	}
}
