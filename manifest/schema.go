package manifest

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema describing plugin.toml, for plugin authors and editors.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	return json.MarshalIndent(r.Reflect(&Manifest{}), "", "  ")
}
