// Package configs holds the configuration template embedded into the
// vaultindex binary, so 'vaultindex init' works from any install
// without extra files on disk.
//
// The template documents every setting the loader understands; see
// internal/config for the precedence rules. To change it, edit the
// .yaml file here and rebuild.
package configs

import _ "embed"

// VaultConfigTemplate is the starter .vaultindex.yaml written into a
// vault root by 'vaultindex init'.
//
//go:embed vault-config.example.yaml
var VaultConfigTemplate string
