// Package errors provides structured error handling for vaultindex.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Vault and file errors
//   - 3XX: Store errors
//   - 4XX: Parse and chunking errors
//   - 5XX: Internal errors
package errors

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates an unrecoverable error; the run must abort.
	SeverityFatal Severity = "FATAL"
	// SeveritySoft indicates a per-file failure; the run continues.
	SeveritySoft Severity = "SOFT"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid = "ERR_101_CONFIG_INVALID"
	ErrCodeConfigRead    = "ERR_102_CONFIG_READ"

	// Vault and file errors (200-299)
	ErrCodeVaultNotFound = "ERR_201_VAULT_NOT_FOUND"
	ErrCodeFileRead      = "ERR_202_FILE_READ"
	ErrCodeStateRead     = "ERR_203_STATE_READ"
	ErrCodeStateWrite    = "ERR_204_STATE_WRITE"
	ErrCodeVaultLocked   = "ERR_205_VAULT_LOCKED"

	// Store errors (300-399)
	ErrCodeStoreUnavailable = "ERR_301_STORE_UNAVAILABLE"
	ErrCodeUpsert           = "ERR_302_UPSERT"
	ErrCodeCollection       = "ERR_303_COLLECTION"
	ErrCodeEmbed            = "ERR_304_EMBED"

	// Parse errors (400-499)
	ErrCodeParse = "ERR_401_PARSE"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// fatalCodes marks codes that abort the whole run. Everything else is a
// per-file soft failure that the pipeline records and moves past.
var fatalCodes = map[string]bool{
	ErrCodeConfigInvalid:    true,
	ErrCodeConfigRead:       true,
	ErrCodeVaultNotFound:    true,
	ErrCodeVaultLocked:      true,
	ErrCodeStoreUnavailable: true,
	ErrCodeInternal:         true,
}

// severityFromCode derives severity from an error code.
func severityFromCode(code string) Severity {
	if fatalCodes[code] {
		return SeverityFatal
	}
	return SeveritySoft
}
