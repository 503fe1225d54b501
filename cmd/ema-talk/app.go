package main

import (
	"context"
	"errors"
	"fmt"

	orchestration "github.com/koscakluka/ema-talk/core"
	"github.com/koscakluka/ema-talk/core/audio"
	"github.com/koscakluka/ema-talk/core/audio/miniaudio"
	"github.com/koscakluka/ema-talk/core/audio/portaudio"
	"github.com/koscakluka/ema-talk/core/avatar"
	"github.com/koscakluka/ema-talk/core/backend"
	"github.com/koscakluka/ema-talk/core/conversations"
	"github.com/koscakluka/ema-talk/core/speech/local"
	"github.com/koscakluka/ema-talk/core/speech/remote"
	"github.com/koscakluka/ema-talk/core/texttospeech"
	"github.com/koscakluka/ema-talk/core/texttospeech/deepgram"
	"github.com/koscakluka/ema-talk/internal/config"
)

const portaudioBufferSize = 512

// app owns everything a command needs to hold a spoken conversation.
type app struct {
	cfg          *config.Config
	orchestrator *orchestration.Orchestrator
	session      *conversations.Session
	closers      []func()
}

type appOptions struct {
	driver    avatar.Driver
	onChange  func([]conversations.Record)
	onTalking func(bool)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	a := &app{cfg: cfg}

	output, closeOutput, err := newAudioOutput(cfg.Audio.Output)
	if err != nil {
		return nil, err
	}
	if closeOutput != nil {
		a.closers = append(a.closers, closeOutput)
	}

	orchestratorOpts := []orchestration.OrchestratorOption{
		orchestration.WithBaseContext(ctx),
		orchestration.WithLocalSource(newLocalSource(cfg.Voice)),
		orchestration.WithAvatarDriver(opts.driver),
		orchestration.WithTalkingCallback(opts.onTalking),
	}
	if output != nil {
		orchestratorOpts = append(orchestratorOpts,
			orchestration.WithAudioOutput(output),
			orchestration.WithRemoteSource(remote.New(remote.WithMinimumPayloadBytes(cfg.Audio.MinPayloadBytes))),
		)
	} else {
		orchestratorOpts = append(orchestratorOpts, orchestration.WithRemoteSource(nil))
	}
	a.orchestrator = orchestration.NewOrchestrator(orchestratorOpts...)
	a.closers = append(a.closers, a.orchestrator.Close)

	sessionOpts := []conversations.SessionOption{
		conversations.WithChangeCallback(opts.onChange),
	}
	if cfg.Deepgram.Enabled && output != nil {
		resolver, err := newAudioResolver(cfg.Deepgram, output.EncodingInfo())
		if err != nil {
			a.Close()
			return nil, err
		}
		sessionOpts = append(sessionOpts, conversations.WithAudioResolver(resolver))
	}

	client := backend.NewClient(cfg.Backend.URL, backend.WithTimeout(cfg.Backend.Timeout))
	a.session = conversations.NewSession(client, a.orchestrator, sessionOpts...)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func newAudioOutput(kind string) (audio.Output, func(), error) {
	switch kind {
	case config.AudioOutputMiniaudio:
		client, err := miniaudio.NewClient(audio.DefaultSampleRate)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open miniaudio output: %w", err)
		}
		return client, client.Close, nil
	case config.AudioOutputPortaudio:
		client, err := portaudio.NewClient(portaudioBufferSize)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open portaudio output: %w", err)
		}
		return client, client.Close, nil
	case config.AudioOutputNone:
		return nil, nil, nil
	default:
		return nil, nil, errors.New("unknown audio output " + kind)
	}
}

func newLocalSource(cfg config.VoiceConfig) *local.Source {
	return local.New(local.DetectEngine(cfg.Engine), local.WithVoicePreference(local.VoicePreference{
		LocaleTag:  cfg.Locale,
		VendorHint: cfg.VendorHint,
	}))
}

func newAudioResolver(cfg config.DeepgramConfig, encoding audio.EncodingInfo) (texttospeech.AudioResolver, error) {
	client, err := deepgram.NewTextToSpeechClient(cfg.APIKey, deepgram.WithSpeechOptions(
		texttospeech.WithVoice(cfg.Model),
		texttospeech.WithEncodingInfo(encoding),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create deepgram client: %w", err)
	}
	return client, nil
}
