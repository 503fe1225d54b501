// Package widget bridges the browser chat widget to a conversation session
// over a websocket.
package widget

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/koscakluka/ema-talk/core/avatar"
	"github.com/koscakluka/ema-talk/core/conversations"
)

const (
	TypeMessage    = "message"
	TypeAvatar     = "avatar"
	TypeTranscript = "transcript"
	TypeAnimation  = "animation"
	TypeMouth      = "mouth"
	TypeStatus     = "status"

	AvatarEventLoad  = "load"
	AvatarEventError = "error"
)

// ClientMessage is sent by the widget.
type ClientMessage struct {
	Type string `json:"type" jsonschema:"enum=message,enum=avatar"`
	// Text is the user's message for type "message".
	Text string `json:"text,omitempty"`
	// Event is "load" or "error" for type "avatar".
	Event  string `json:"event,omitempty" jsonschema:"enum=load,enum=error"`
	Detail string `json:"detail,omitempty"`
}

// ServerMessage is sent to the widget. Only the fields of its type are set.
type ServerMessage struct {
	Type    string                 `json:"type" jsonschema:"enum=transcript,enum=animation,enum=mouth,enum=status"`
	Records []conversations.Record `json:"records,omitempty"`
	State   avatar.State           `json:"state,omitempty"`
	Open    *float64               `json:"open,omitempty" jsonschema:"minimum=0,maximum=1"`
	Text    string                 `json:"text,omitempty"`
}

func transcriptMessage(records []conversations.Record) ServerMessage {
	if records == nil {
		records = []conversations.Record{}
	}
	return ServerMessage{Type: TypeTranscript, Records: records}
}

func animationMessage(state avatar.State) ServerMessage {
	return ServerMessage{Type: TypeAnimation, State: state}
}

func mouthMessage(open float64) ServerMessage {
	return ServerMessage{Type: TypeMouth, Open: &open}
}

func statusMessage(text string) ServerMessage {
	return ServerMessage{Type: TypeStatus, Text: text}
}

// SchemaJSON renders the JSON Schemas of both message directions.
func SchemaJSON() ([]byte, error) {
	reflector := jsonschema.Reflector{DoNotReference: true}
	return json.MarshalIndent(map[string]*jsonschema.Schema{
		"client": reflector.Reflect(&ClientMessage{}),
		"server": reflector.Reflect(&ServerMessage{}),
	}, "", "  ")
}
