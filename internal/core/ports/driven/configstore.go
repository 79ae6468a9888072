package driven

// ConfigStore holds settings under dotted keys such as "llm.model".
// Typed getters return the zero value for missing keys or values of the
// wrong type; callers that must tell the two apart use Get.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetStringSlice(key string) []string

	// Set stores one value and persists it.
	Set(key string, value any) error

	// Update stores every value in one write. Either all of them are
	// persisted or none are.
	Update(values map[string]any) error

	// Delete removes key. Removing a missing key is not an error.
	Delete(key string) error

	// Path names where the settings live, for display.
	Path() string
}
