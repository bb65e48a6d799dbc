package config

// Store backends.
const (
	BackendFile    = "file"
	BackendSQLite  = "sqlite"
	BackendKeyring = "keyring"
	BackendMemory  = "memory"
)

// Credential hash schemes.
const (
	HashSHA256   = "sha256"
	HashArgon2id = "argon2id"
)

// Corrupt-settings policies.
const (
	CorruptOpen   = "open"
	CorruptClosed = "closed"
)

// Biometric providers.
const (
	BiometricNone     = "none"
	BiometricScripted = "scripted"
	BiometricCommand  = "command"
)

//nolint:gochecknoglobals // Enumerations used by Validate and config help
var (
	Backends           = []string{BackendFile, BackendSQLite, BackendKeyring, BackendMemory}
	HashSchemes        = []string{HashSHA256, HashArgon2id}
	CorruptPolicies    = []string{CorruptOpen, CorruptClosed}
	BiometricProviders = []string{BiometricNone, BiometricScripted, BiometricCommand}
)

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.lockgate",
		Store: StoreConfig{
			Backend: BackendFile,
			Path:    "",
		},
		Lock: LockConfig{
			TickSeconds:             30,
			HashScheme:              HashSHA256,
			PINLength:               4,
			CorruptPolicy:           CorruptOpen,
			UnlockAttemptsPerMinute: 5,
		},
		Biometric: BiometricConfig{
			Provider: BiometricNone,
			Command:  "fprintd-verify",
			Modality: "fingerprint",
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.lockgate/lockgate.log",
		},
	}
}
