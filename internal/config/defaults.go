package config

import (
	"os"

	"github.com/spf13/viper"
)

// Default values.
const (
	DefaultDB        = "workint.db"
	DefaultAuthority = "de.nenick.workinterruption"
	DefaultHTTPAddr  = ":8080"
	DefaultLogLevel  = "info"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DB:        DefaultDB,
		Authority: DefaultAuthority,
		HTTP: HTTPConfig{
			Addr: DefaultHTTPAddr,
		},
		Export: ExportConfig{
			Strict: false,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// setDefaults registers every key with viper so environment variables
// can override keys absent from the file.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("db", d.DB)
	v.SetDefault("authority", d.Authority)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("export.strict", d.Export.Strict)
	v.SetDefault("log.level", d.Log.Level)
}

// WriteDefault writes a commented default configuration file.
func WriteDefault(path string) error {
	content := `# workint configuration
# Every key can be overridden with a WORKINT_* environment variable,
# e.g. WORKINT_HTTP_ADDR=:9090

# SQLite database file
db: workint.db

# content:// authority accepted in task addresses
authority: de.nenick.workinterruption

http:
  addr: ":8080"

export:
  # true: encoding failures fail the stream read
  # false: the stream ends early without an error
  strict: false

log:
  level: info  # debug, info, warn, error
`
	return os.WriteFile(path, []byte(content), 0644)
}
