// Package configs holds the embedded configuration template for semindex.
//
// The template is embedded at build time with go:embed so every
// distribution carries it: source builds, binary releases, package
// managers. `semindex config init` writes it to <data-home>/config.yaml
// with its comments intact, which a yaml.Marshal of the defaults could
// not reproduce.
//
// The values in default.yaml mirror the hardcoded defaults in
// internal/config.NewConfig(); a test in internal/config keeps the two in
// sync.
package configs

import _ "embed"

// DefaultConfigTemplate is the commented user configuration template.
//
//go:embed default.yaml
var DefaultConfigTemplate string
