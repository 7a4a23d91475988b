package workday

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// inputSchema derives a tool input JSON schema from the struct T.
func inputSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)

	raw, err := json.Marshal(schema)
	if err != nil {
		panic("workday: marshal input schema: " + err.Error())
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		panic("workday: decode input schema: " + err.Error())
	}
	delete(out, "$schema")
	delete(out, "$id")

	return out
}
