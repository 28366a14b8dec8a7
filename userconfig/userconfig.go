package userconfig

import (
	"errors"
	"fmt"
	"io"

	"github.com/caarlos0/env/v11"
	"github.com/ptgott/digivice/gamedata"
	"github.com/ptgott/digivice/storage"
	"github.com/rs/zerolog/log"

	yaml "gopkg.in/yaml.v2"
)

// Meta represents all current config options that the application can use,
// i.e., after validation and parsing
type Meta struct {
	Storage storage.Config `yaml:"storage"`
	Game    Game           `yaml:"game"`
}

// Game contains config options for the saved game document
type Game struct {
	// Storage key of the game document
	DataKey string `yaml:"dataKey" env:"DIGIVICE_DATA_KEY"`
}

// Default returns the configuration used when there is no config file
func Default() *Meta {
	return &Meta{
		Storage: storage.DefaultConfig(),
		Game:    Game{DataKey: gamedata.DefaultKey},
	}
}

// CheckAndSetDefaults validates m and either returns a copy of m with default
// settings applied or returns an error due to an invalid configuration
func (m *Meta) CheckAndSetDefaults() (Meta, error) {
	c := Meta{}

	s, err := m.Storage.CheckAndSetDefaults()
	if err != nil {
		return Meta{}, err
	}
	c.Storage = s

	c.Game = m.Game
	if c.Game.DataKey == "" {
		c.Game.DataKey = gamedata.DefaultKey
	}

	return c, nil
}

// Parse generates usable configurations from possibly arbitrary user input.
// An error indicates a problem with parsing. The Reader r can be either JSON
// or YAML. Sections missing from r keep their defaults, and DIGIVICE_*
// environment variables override whatever r contains.
func Parse(r io.Reader) (*Meta, error) {
	m := Default()
	err := yaml.NewDecoder(r).Decode(m)
	// An empty file is a valid config that sets nothing
	if err != nil && !errors.Is(err, io.EOF) {
		return &Meta{}, fmt.Errorf("can't read the config file as YAML: %v", err)
	}

	if err := ApplyEnv(m); err != nil {
		return &Meta{}, err
	}

	if m.Storage.StorageDirPath == "" {
		log.Debug().Msg(
			"no storage directory: game data will be kept in memory",
		)
	}

	return m, nil
}

// ApplyEnv overrides m with any DIGIVICE_* environment variables that are
// set.
func ApplyEnv(m *Meta) error {
	if err := env.Parse(m); err != nil {
		return fmt.Errorf("can't read the config from the environment: %w", err)
	}
	return nil
}
