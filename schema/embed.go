package schema

import _ "embed"

// OpenAPI holds the embedded OpenAPI document for the streams API.
//go:embed openapi.yaml
var OpenAPI []byte
