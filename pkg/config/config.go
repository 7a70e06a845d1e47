// Package config handles loading and access to the site configuration.
package config

// Reserved keys injected by the orchestrator after the configuration
// file has been resolved. They never appear in the user's file and are
// added exactly once, before the Site is constructed.
const (
	KeyColorful   = "__colorful__"
	KeyInvariant  = "__invariant__"
	KeyQuiet      = "__quiet__"
	KeyConfigFile = "__configuration_filename__"
)

// DefaultFilename is the configuration file looked up when no
// --conf= override is given. It also serves as the project-root
// marker for the upward search.
const DefaultFilename = "conf.yml"

// Config is the materialized configuration mapping. It is built once
// per invocation and treated as read-only afterwards.
type Config map[string]interface{}

// GetString returns the string value for key, or def when the key is
// absent or not a string.
func (c Config) GetString(key, def string) string {
	if v, ok := c[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// GetBool returns the boolean value for key, or def when the key is
// absent or not a boolean.
func (c Config) GetBool(key string, def bool) bool {
	if v, ok := c[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// HasUserKeys reports whether the mapping carries any non-reserved
// entries, i.e. whether a real project configuration was loaded.
func (c Config) HasUserKeys() bool {
	for k := range c {
		switch k {
		case KeyColorful, KeyInvariant, KeyQuiet, KeyConfigFile:
		default:
			return true
		}
	}
	return false
}
