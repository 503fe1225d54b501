package backend

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Schemas returns the JSON Schemas of the request and response bodies,
// keyed "request" and "response".
func Schemas() map[string]*jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}
	return map[string]*jsonschema.Schema{
		"request":  reflector.Reflect(&Request{}),
		"response": reflector.Reflect(&Response{}),
	}
}

// SchemaJSON renders Schemas as indented JSON.
func SchemaJSON() ([]byte, error) {
	return json.MarshalIndent(Schemas(), "", "  ")
}
