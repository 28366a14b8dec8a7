//go:build !(js && wasm)

package storage

import "github.com/rs/zerolog/log"

// PlatformEnvironment returns the environment NewFacade should probe. Native
// builds have no global scope, so hosts that want the bridge backend must
// register a bridge in the returned MapEnvironment themselves.
func PlatformEnvironment() *MapEnvironment {
	return NewMapEnvironment()
}

// openMedium opens BadgerDB at conf.StorageDirPath, or a memory medium if
// there's no directory.
func openMedium(conf *Config) (Medium, error) {
	if conf.StorageDirPath == "" {
		log.Warn().Msg("no storage directory configured: game data will not survive a restart")
		return NewMemoryMedium(conf.MaxValueSize), nil
	}
	return NewBadgerMedium(conf)
}
