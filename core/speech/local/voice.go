package local

import "strings"

// Voice is one synthesis voice offered by an engine.
type Voice struct {
	// ID is the engine-specific identifier passed back to Speak.
	ID      string
	Name    string
	Locale  string
	Default bool
}

// VoicePreference is the static voice configuration.
type VoicePreference struct {
	LocaleTag string
	// VendorHint is matched case-insensitively against voice names.
	VendorHint string
}

// SelectVoice picks the voice for pref:
//
//  1. the first voice in the preferred locale whose name contains the vendor hint,
//  2. otherwise the default voice for that locale (or its first voice),
//  3. otherwise nil, leaving the choice to the engine's global default.
func SelectVoice(voices []Voice, pref VoicePreference) *Voice {
	hint := strings.ToLower(strings.TrimSpace(pref.VendorHint))

	var localeDefault, localeFirst *Voice
	for i := range voices {
		voice := &voices[i]
		if !localeMatches(voice.Locale, pref.LocaleTag) {
			continue
		}
		if hint != "" && strings.Contains(strings.ToLower(voice.Name), hint) {
			return voice
		}
		if voice.Default && localeDefault == nil {
			localeDefault = voice
		}
		if localeFirst == nil {
			localeFirst = voice
		}
	}

	if localeDefault != nil {
		return localeDefault
	}
	return localeFirst
}

func normalizeLocale(tag string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-"))
}

// localeMatches compares BCP 47-ish tags. A tag without region matches any
// region of the same language.
func localeMatches(voiceLocale, preferred string) bool {
	voiceLocale, preferred = normalizeLocale(voiceLocale), normalizeLocale(preferred)
	if preferred == "" {
		return true
	}
	if voiceLocale == preferred {
		return true
	}

	voiceLang, voiceRegion, _ := strings.Cut(voiceLocale, "-")
	prefLang, prefRegion, _ := strings.Cut(preferred, "-")
	if voiceLang != prefLang {
		return false
	}
	return voiceRegion == "" || prefRegion == ""
}
