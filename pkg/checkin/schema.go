package checkin

import (
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
)

var (
	inputSchema     *jsonschema.Schema
	inputSchemaOnce sync.Once
)

// Schema returns the JSON schema of Input. The value is shared; callers
// must not modify it.
func Schema() *jsonschema.Schema {
	inputSchemaOnce.Do(func() {
		reflector := jsonschema.Reflector{
			AllowAdditionalProperties:  false,
			DoNotReference:             true,
			RequiredFromJSONSchemaTags: true,
		}
		inputSchema = reflector.Reflect(&Input{})
		inputSchema.Title = "Check-in"
		inputSchema.Description = "Daily check-in submitted for sentiment analysis"
	})
	return inputSchema
}

// SchemaJSON returns Schema encoded as indented JSON.
func SchemaJSON() ([]byte, error) {
	return json.MarshalIndent(Schema(), "", "  ")
}
