package scheduling

import "fmt"

// ConfigError reports an invalid configuration value. It is a fatal error
// raised before any scheduling happens.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
