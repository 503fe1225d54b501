package deepgram

import (
	"fmt"
	"net/url"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-talk/core/audio"
	"github.com/koscakluka/ema-talk/core/texttospeech"
)

var defaultEndpoint = url.URL{Scheme: "wss", Host: "api.deepgram.com", Path: "/v1/speak"}

type TextToSpeechClient struct {
	apiKey   string
	endpoint url.URL
	dialer   *websocket.Dialer
	options  texttospeech.TextToSpeechOptions
	voice    deepgramVoice
}

type ClientOption func(*TextToSpeechClient)

// WithEndpoint replaces the speak websocket endpoint.
func WithEndpoint(endpoint url.URL) ClientOption {
	return func(c *TextToSpeechClient) {
		c.endpoint = endpoint
	}
}

func WithDialer(dialer *websocket.Dialer) ClientOption {
	return func(c *TextToSpeechClient) {
		if dialer != nil {
			c.dialer = dialer
		}
	}
}

func WithSpeechOptions(opts ...texttospeech.TextToSpeechOption) ClientOption {
	return func(c *TextToSpeechClient) {
		for _, opt := range opts {
			opt(&c.options)
		}
	}
}

func NewTextToSpeechClient(apiKey string, opts ...ClientOption) (*TextToSpeechClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepgram api key not set")
	}

	client := &TextToSpeechClient{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		dialer:   websocket.DefaultDialer,
		options: texttospeech.TextToSpeechOptions{
			EncodingInfo: audio.GetDefaultEncodingInfo(),
			Voice:        string(defaultVoice),
		},
	}
	for _, opt := range opts {
		opt(client)
	}

	voice := deepgramVoice(client.options.Voice)
	if !slices.Contains(GetAvailableVoices(), voice) {
		return nil, fmt.Errorf("invalid voice %q", voice)
	}
	client.voice = voice

	return client, nil
}

func (c *TextToSpeechClient) Voice() string { return string(c.voice) }
