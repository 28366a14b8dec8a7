//go:build js && wasm

package storage

// PlatformEnvironment returns the page's global scope
func PlatformEnvironment() GlobalEnvironment {
	return GlobalEnvironment{}
}

// openMedium uses window.localStorage. The storage directory only applies to
// native builds.
func openMedium(conf *Config) (Medium, error) {
	return NewLocalStorageMedium(conf.MaxValueSize)
}
