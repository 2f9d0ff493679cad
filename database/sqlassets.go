package sqlassets

import _ "embed"

// StorefrontSQL is the idempotent DDL of the storefront schema.
//
//go:embed schema/storefront.sql
var StorefrontSQL string
