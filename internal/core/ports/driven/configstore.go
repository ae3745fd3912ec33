package driven

// ConfigStore is the flat key/value view of the galassia config file.
// Keys are dotted section paths such as "workflow.max_regenerations" or
// "graph.path". Typed getters return the zero value for missing keys and
// for values of another type.
type ConfigStore interface {
	// Get returns the raw value and whether the key is present.
	Get(key string) (any, bool)

	GetString(key string) string

	// GetInt also accepts int64 and float64, since decoded TOML numbers
	// arrive in either form.
	GetInt(key string) int

	// GetFloat widens integers.
	GetFloat(key string) float64

	GetBool(key string) bool

	GetStringSlice(key string) []string

	// Set updates a key and writes the file.
	Set(key string, value any) error

	// Save writes the current values to disk.
	Save() error

	// Load replaces the in-memory values with the file contents.
	Load() error

	// Path names the backing file, or ":memory:" for stores without one.
	Path() string
}
