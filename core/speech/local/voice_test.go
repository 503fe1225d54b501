package local

import "testing"

var testVoices = []Voice{
	{ID: "Alex", Name: "Alex", Locale: "en_US", Default: true},
	{ID: "Anna", Name: "Anna", Locale: "de_DE", Default: true},
	{ID: "google-de", Name: "Google Deutsch", Locale: "de-DE"},
	{ID: "ms-de", Name: "Microsoft Katja Online", Locale: "de-DE"},
}

func TestSelectVoicePrefersVendorHintInLocale(t *testing.T) {
	voice := SelectVoice(testVoices, VoicePreference{LocaleTag: "de-DE", VendorHint: "google"})
	if voice == nil || voice.ID != "google-de" {
		t.Fatalf("expected Google Deutsch, got %+v", voice)
	}
}

func TestSelectVoiceFallsBackToLocaleDefault(t *testing.T) {
	voice := SelectVoice(testVoices, VoicePreference{LocaleTag: "de-DE", VendorHint: "Amazon"})
	if voice == nil || voice.ID != "Anna" {
		t.Fatalf("expected locale default Anna, got %+v", voice)
	}
}

func TestSelectVoiceIgnoresHintOutsideLocale(t *testing.T) {
	voices := []Voice{{ID: "google-en", Name: "Google US English", Locale: "en-US"}}
	if voice := SelectVoice(voices, VoicePreference{LocaleTag: "de-DE", VendorHint: "Google"}); voice != nil {
		t.Fatalf("expected no voice for unmatched locale, got %+v", voice)
	}
}

func TestSelectVoiceUsesFirstLocaleVoiceWithoutDefault(t *testing.T) {
	voices := []Voice{
		{ID: "a", Name: "Petra", Locale: "de_AT"},
		{ID: "b", Name: "Markus", Locale: "de_DE"},
	}
	voice := SelectVoice(voices, VoicePreference{LocaleTag: "de-DE"})
	if voice == nil || voice.ID != "b" {
		t.Fatalf("expected Markus, got %+v", voice)
	}
}

func TestLocaleMatches(t *testing.T) {
	cases := []struct {
		voice, preferred string
		want             bool
	}{
		{"de_DE", "de-DE", true},
		{"de", "de-DE", true},
		{"de-AT", "de", true},
		{"de-AT", "de-DE", false},
		{"en-US", "de-DE", false},
		{"en-US", "", true},
	}
	for _, c := range cases {
		if got := localeMatches(c.voice, c.preferred); got != c.want {
			t.Fatalf("localeMatches(%q, %q) = %v, want %v", c.voice, c.preferred, got, c.want)
		}
	}
}
