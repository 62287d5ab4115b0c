package progress

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Schema is the JSON schema of the progress file.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{DoNotReference: true}
	return json.MarshalIndent(reflector.Reflect(&File{}), "", "  ")
}
