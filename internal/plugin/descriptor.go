package plugin

// idSeparator joins type and name in a descriptor ID.
const idSeparator = "::"

// Descriptor identifies a discovered module. It is created once during
// discovery and never mutated afterwards.
type Descriptor struct {
	Type        string `json:"type"         yaml:"type"`
	Name        string `json:"name"         yaml:"name"`
	LibraryPath string `json:"library_path" yaml:"library_path"`
}

// ID returns the cache key of the descriptor, "type::name".
func (d Descriptor) ID() string {
	return ID(d.Type, d.Name)
}

// ID builds a descriptor ID from its parts.
func ID(pluginType, name string) string {
	return pluginType + idSeparator + name
}
