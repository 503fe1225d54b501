package deepgram

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-talk/core/audio"
	"github.com/koscakluka/ema-talk/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ texttospeech.AudioResolver = (*TextToSpeechClient)(nil)

// ResolveAudio synthesises text over the speak websocket and returns the
// result as a WAV data: reference.
func (c *TextToSpeechClient) ResolveAudio(ctx context.Context, text string) (string, error) {
	ctx, span := tracer.Start(ctx, "deepgram speak", trace.WithAttributes(
		attribute.String("tts.voice", string(c.voice)),
		attribute.Int("tts.text_length", len(text)),
	))
	defer span.End()

	pcm, err := c.speak(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	wav := audio.EncodeWAV(pcm, c.options.EncodingInfo.SampleRate)
	span.SetAttributes(attribute.Int("tts.audio_bytes", len(wav)))
	return "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(wav), nil
}

func (c *TextToSpeechClient) speak(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("nothing to speak")
	}

	conn, err := c.connectWebsocket(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open websocket: %w", err)
	}
	req := &streamingRequest{ws: conn}
	defer func() { _ = req.Close() }()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := req.sendWebsocketMessage(sendTextMsg(text)); err != nil {
		return nil, err
	}
	if err := req.sendWebsocketMessage(flushMsg); err != nil {
		return nil, err
	}

	pcm, err := req.collectUntilFlushed()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("deepgram returned no audio")
	}
	return pcm, nil
}

func (c *TextToSpeechClient) connectWebsocket(ctx context.Context) (*websocket.Conn, error) {
	encodingInfo := c.options.EncodingInfo

	urlValues := url.Values{}
	urlValues.Set("encoding", encodingInfo.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(encodingInfo.SampleRate))
	urlValues.Set("model", string(c.voice))
	urlValues.Set("container", "none")

	endpoint := c.endpoint
	endpoint.RawQuery = urlValues.Encode()

	conn, _, err := c.dialer.DialContext(ctx, endpoint.String(),
		http.Header{"Authorization": {"token " + c.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

type streamingRequest struct {
	ws *websocket.Conn
	mu sync.Mutex

	closed bool
}

// collectUntilFlushed gathers binary audio frames until deepgram confirms
// the flush.
func (r *streamingRequest) collectUntilFlushed() ([]byte, error) {
	var pcm []byte
	for {
		msgType, msg, err := r.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return pcm, nil
			}
			return nil, fmt.Errorf("websocket read failed: %w", err)
		}

		switch msgType {
		case websocket.BinaryMessage:
			pcm = append(pcm, msg...)
		case websocket.TextMessage:
			var parsedMsg struct {
				Type        string `json:"type"`
				Description string `json:"description"`
			}
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				logger.Debug("ignoring unparsable deepgram message", "error", err)
				continue
			}

			switch parsedMsg.Type {
			case "Flushed":
				return pcm, nil
			case "Error":
				return nil, fmt.Errorf("deepgram error: %s", parsedMsg.Description)
			case "Warning":
				logger.Warn("deepgram warning", "description", parsedMsg.Description)
			}
		}
	}
}

func (r *streamingRequest) Close() error {
	err := r.sendWebsocketMessage(closeMsg)
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	if closeErr := r.ws.Close(); closeErr != nil && err != nil {
		return fmt.Errorf("failed to close websocket: %w", errors.Join(err, closeErr))
	}
	return nil
}

type websocketMessage struct {
	Type string `json:"type"`
}

type speakMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

var (
	sendTextMsg = func(text string) speakMessage { return speakMessage{Type: "Speak", Text: text} }
	flushMsg    = websocketMessage{Type: "Flush"}
	closeMsg    = websocketMessage{Type: "Close"}
)

func (r *streamingRequest) sendWebsocketMessage(msg any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.ws == nil {
		return fmt.Errorf("websocket connection closed")
	}

	if err := r.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to websocket: %w", err)
	}
	return nil
}
