package local

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
	"sync"
)

// Engine is an on-device speech synthesizer.
type Engine interface {
	Name() string
	Available() bool
	Voices(ctx context.Context) ([]Voice, error)
	// Speak starts speaking text. A nil voice lets the engine pick its
	// default for locale.
	Speak(ctx context.Context, text string, voice *Voice, locale string) (Utterance, error)
}

// Utterance is a single in-flight Speak call.
type Utterance interface {
	// Started is closed once audio starts.
	Started() <-chan struct{}
	// Done is closed once the utterance ends, successfully or not.
	Done() <-chan struct{}
	// Err is valid after Done is closed.
	Err() error
	Cancel()
}

var errEngineUnavailable = errors.New("speech engine not available")

// DetectEngine returns the engine named by preference, or the first
// available engine for "auto". It returns nil for "none" or when nothing is
// installed.
func DetectEngine(preference string) Engine {
	candidates := []Engine{NewSayEngine(), NewESpeakEngine()}

	switch strings.ToLower(strings.TrimSpace(preference)) {
	case "none":
		return nil
	case "say":
		candidates = candidates[:1]
	case "espeak", "espeak-ng":
		candidates = candidates[1:]
	}

	for _, engine := range candidates {
		if engine.Available() {
			return engine
		}
	}
	return nil
}

// commandEngine runs a synthesizer binary per utterance.
type commandEngine struct {
	name       string
	binaries   []string
	goos       string
	voicesArgs []string
	parse      func(string) []Voice
	// speakArgs never carries the text; it is written to stdin so replies
	// starting with a dash are not parsed as flags.
	speakArgs func(voice *Voice, locale string) []string

	lookupOnce sync.Once
	binary     string
}

func (e *commandEngine) Name() string { return e.name }

func (e *commandEngine) resolve() string {
	e.lookupOnce.Do(func() {
		if e.goos != "" && runtime.GOOS != e.goos {
			return
		}
		for _, bin := range e.binaries {
			if path, err := exec.LookPath(bin); err == nil {
				e.binary = path
				return
			}
		}
	})
	return e.binary
}

func (e *commandEngine) Available() bool { return e.resolve() != "" }

func (e *commandEngine) Voices(ctx context.Context) ([]Voice, error) {
	bin := e.resolve()
	if bin == "" {
		return nil, errEngineUnavailable
	}

	output, err := exec.CommandContext(ctx, bin, e.voicesArgs...).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s voices: %w", e.name, err)
	}
	return e.parse(string(output)), nil
}

func (e *commandEngine) Speak(ctx context.Context, text string, voice *Voice, locale string) (Utterance, error) {
	bin := e.resolve()
	if bin == "" {
		return nil, errEngineUnavailable
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, bin, e.speakArgs(voice, locale)...)
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start %s: %w", e.name, err)
	}

	u := &commandUtterance{
		started: make(chan struct{}),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
	close(u.started)
	go func() {
		defer close(u.done)
		defer cancel()
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			u.err = fmt.Errorf("%s exited: %w", e.name, err)
		}
	}()
	return u, nil
}

type commandUtterance struct {
	started chan struct{}
	done    chan struct{}
	err     error
	cancel  context.CancelFunc
}

func (u *commandUtterance) Started() <-chan struct{} { return u.started }
func (u *commandUtterance) Done() <-chan struct{}    { return u.done }
func (u *commandUtterance) Err() error               { <-u.done; return u.err }
func (u *commandUtterance) Cancel()                  { u.cancel() }

// NewSayEngine returns the macOS `say` engine.
func NewSayEngine() Engine {
	return &commandEngine{
		name:       "say",
		binaries:   []string{"say"},
		goos:       "darwin",
		voicesArgs: []string{"-v", "?"},
		parse:      parseSayVoices,
		speakArgs: func(voice *Voice, _ string) []string {
			if voice == nil {
				return []string{"-f", "-"}
			}
			return []string{"-v", voice.ID, "-f", "-"}
		},
	}
}

// NewESpeakEngine returns the espeak-ng (or legacy espeak) engine.
func NewESpeakEngine() Engine {
	return &commandEngine{
		name:       "espeak-ng",
		binaries:   []string{"espeak-ng", "espeak"},
		voicesArgs: []string{"--voices"},
		parse:      parseESpeakVoices,
		speakArgs: func(voice *Voice, locale string) []string {
			switch {
			case voice != nil:
				return []string{"-v", voice.ID, "--stdin"}
			case locale != "":
				lang, _, _ := strings.Cut(normalizeLocale(locale), "-")
				return []string{"-v", lang, "--stdin"}
			default:
				return []string{"--stdin"}
			}
		},
	}
}

// "Anna                de_DE    # Hallo, ich heiße Anna."
var sayVoiceLine = regexp.MustCompile(`^(.+?)\s+([a-z]{2,3}[_-][A-Za-z0-9]{2,4})\s+#`)

func parseSayVoices(output string) []Voice {
	var voices []Voice
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		match := sayVoiceLine.FindStringSubmatch(scanner.Text())
		if match == nil {
			continue
		}
		name := strings.TrimSpace(match[1])
		voices = append(voices, Voice{ID: name, Name: name, Locale: match[2]})
	}
	return voices
}

// Columns: Pty Language Age/Gender VoiceName File Other Languages
func parseESpeakVoices(output string) []Voice {
	var voices []Voice
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 5 || fields[0] == "Pty" {
			continue
		}
		voices = append(voices, Voice{
			ID:      fields[4],
			Name:    strings.ReplaceAll(fields[3], "_", " "),
			Locale:  fields[1],
			Default: !strings.Contains(fields[4], "variant"),
		})
	}
	return voices
}
