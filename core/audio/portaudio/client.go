// Package portaudio provides the audio output channel on top of PortAudio.
package portaudio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-talk/core/audio"
)

// Client writes mono linear16 audio to the default output device. It
// satisfies [audio.Output].
type Client struct {
	bufferSize int
	stream     *portaudio.Stream
	out        []int16

	queue  []byte
	marks  []queuedMark
	mu     sync.Mutex
	wake   chan struct{}
	closed chan struct{}
	done   chan struct{}
}

var _ audio.Output = (*Client)(nil)

type queuedMark struct {
	name     string
	position int
	callback func(string)
}

func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	out := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(0, 1, audio.DefaultSampleRate, bufferSize, out)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	c := &Client{
		bufferSize: bufferSize,
		stream:     stream,
		out:        out,
		wake:       make(chan struct{}, 1),
		closed:     make(chan struct{}),
		done:       make(chan struct{}),
	}
	go c.writeLoop()
	return c, nil
}

func (c *Client) Close() {
	select {
	case <-c.closed:
		return
	default:
		close(c.closed)
	}
	<-c.done
	c.ClearBuffer()
	_ = c.stream.Close()
	_ = portaudio.Terminate()
}

func (c *Client) SendAudio(audio []byte) error {
	select {
	case <-c.closed:
		return fmt.Errorf("output closed")
	default:
	}

	c.mu.Lock()
	c.queue = append(c.queue, audio...)
	c.mu.Unlock()
	c.signal()
	return nil
}

func (c *Client) ClearBuffer() {
	c.mu.Lock()
	c.queue = nil
	dropped := c.marks
	c.marks = nil
	c.mu.Unlock()

	for _, mark := range dropped {
		go mark.callback(mark.name)
	}
}

func (c *Client) Mark(mark string, callback func(string)) error {
	c.mu.Lock()
	c.marks = append(c.marks, queuedMark{name: mark, position: len(c.queue), callback: callback})
	c.mu.Unlock()
	c.signal()
	return nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Format:     audio.EncodingLinear16,
	}
}

func (c *Client) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Client) writeLoop() {
	defer close(c.done)
	frameBytes := c.bufferSize * 2

	for {
		c.mu.Lock()
		c.releaseMarks()
		if len(c.queue) == 0 {
			c.mu.Unlock()
			select {
			case <-c.closed:
				return
			case <-c.wake:
				continue
			}
		}

		chunk := make([]byte, frameBytes)
		n := copy(chunk, c.queue)
		c.queue = c.queue[n:]
		for i := range c.marks {
			c.marks[i].position -= n
		}
		c.mu.Unlock()

		// a short final chunk is padded with silence
		_ = binary.Read(bytes.NewReader(chunk), binary.LittleEndian, c.out)
		if err := c.stream.Write(); err != nil {
			logger.Warn("portaudio write failed", "error", err)
		}

		select {
		case <-c.closed:
			return
		default:
		}
	}
}

// releaseMarks must be called with c.mu held.
func (c *Client) releaseMarks() {
	passed := 0
	for _, mark := range c.marks {
		if mark.position > 0 {
			break
		}
		passed++
	}
	if passed == 0 {
		return
	}

	toCall := c.marks[:passed]
	c.marks = c.marks[passed:]
	go func() {
		for _, mark := range toCall {
			mark.callback(mark.name)
		}
	}()
}
