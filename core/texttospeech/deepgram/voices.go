package deepgram

type deepgramVoice string

const (
	VoiceJuliusDE   deepgramVoice = "aura-2-julius-de"
	VoiceViktoriaDE deepgramVoice = "aura-2-viktoria-de"
	VoiceThaliaEN   deepgramVoice = "aura-2-thalia-en"
	VoiceApolloEN   deepgramVoice = "aura-2-apollo-en"
	VoiceAsteriaEN  deepgramVoice = "aura-asteria-en"

	defaultVoice = VoiceViktoriaDE
)

func GetAvailableVoices() []deepgramVoice {
	return []deepgramVoice{
		VoiceJuliusDE,
		VoiceViktoriaDE,
		VoiceThaliaEN,
		VoiceApolloEN,
		VoiceAsteriaEN,
	}
}
