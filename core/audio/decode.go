package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Decode sniffs the container of payload and decodes it into a clip.
// WAV (16-bit PCM) and MP3 are supported.
func Decode(payload []byte) (Clip, error) {
	switch {
	case isWAV(payload):
		return decodeWAV(payload)
	case isMP3(payload):
		return decodeMP3(payload)
	default:
		return Clip{}, ErrUnsupportedFormat
	}
}

func isWAV(payload []byte) bool {
	return len(payload) >= 12 &&
		bytes.Equal(payload[0:4], []byte("RIFF")) &&
		bytes.Equal(payload[8:12], []byte("WAVE"))
}

func isMP3(payload []byte) bool {
	if len(payload) >= 3 && bytes.Equal(payload[0:3], []byte("ID3")) {
		return true
	}
	// MPEG frame sync
	return len(payload) >= 2 && payload[0] == 0xFF && payload[1]&0xE0 == 0xE0
}

func decodeWAV(payload []byte) (Clip, error) {
	var (
		channels      int
		sampleRate    int
		bitsPerSample int
		formatFound   bool
	)

	body := payload[12:]
	for len(body) >= 8 {
		id := string(body[0:4])
		size := int(binary.LittleEndian.Uint32(body[4:8]))
		body = body[8:]
		if size > len(body) {
			size = len(body)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return Clip{}, fmt.Errorf("%w: short wav fmt chunk", ErrUnsupportedFormat)
			}
			if format := binary.LittleEndian.Uint16(body[0:2]); format != 1 {
				return Clip{}, fmt.Errorf("%w: wav format tag %d", ErrUnsupportedFormat, format)
			}
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(body[14:16]))
			formatFound = true
		case "data":
			if !formatFound {
				return Clip{}, fmt.Errorf("%w: wav data before fmt chunk", ErrUnsupportedFormat)
			}
			if bitsPerSample != 16 {
				return Clip{}, fmt.Errorf("%w: %d-bit wav", ErrUnsupportedFormat, bitsPerSample)
			}
			clip := PCM16Clip(body[:size], sampleRate)
			clip.Channels = channels
			return clip, nil
		}

		// chunks are word aligned
		if size%2 == 1 && size < len(body) {
			size++
		}
		body = body[size:]
	}

	return Clip{}, fmt.Errorf("%w: wav without data chunk", ErrUnsupportedFormat)
}

func decodeMP3(payload []byte) (Clip, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(payload))
	if err != nil {
		return Clip{}, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}

	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return Clip{}, fmt.Errorf("failed to decode mp3: %w", err)
	}

	// go-mp3 always produces 16-bit little-endian stereo
	clip := PCM16Clip(pcm, decoder.SampleRate())
	clip.Channels = 2
	return clip, nil
}

// EncodeWAV wraps mono linear16 PCM in a RIFF/WAVE container.
func EncodeWAV(pcm []byte, sampleRate int) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 44+len(pcm)))
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(buf, binary.LittleEndian, uint16(1)) // mono
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2))
	_ = binary.Write(buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
