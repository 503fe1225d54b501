package audio

// Output is the process-wide audio output channel.
//
// SendAudio queues audio in the output's encoding, ClearBuffer drops anything
// not yet played, and Mark invokes callback once all audio queued before the
// mark has been played.
type Output interface {
	EncodingInfo() EncodingInfo
	SendAudio(audio []byte) error
	ClearBuffer()
	Mark(mark string, callback func(string)) error
}
