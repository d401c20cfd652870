// Package schemas holds the JSON Schemas of the files Jobni reads from disk.
package schemas

import _ "embed"

// Seed is the schema of the fixture files imported by the seed command.
//
//go:embed seed.schema.json
var Seed []byte
