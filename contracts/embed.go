// Package contracts embeds the OpenAPI contract of the storefront API.
package contracts

import (
	_ "embed"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed storefront.yaml
var StorefrontYAML []byte

// LoadStorefront parses and validates the embedded contract.
func LoadStorefront() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromData(StorefrontYAML)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(loader.Context); err != nil {
		return nil, err
	}
	return spec, nil
}
