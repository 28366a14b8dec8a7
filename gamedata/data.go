package gamedata

import (
	"time"

	"github.com/google/uuid"
)

// CurrentVersion is the schema version written by this package. Documents
// saved before versioning was introduced have no version field and are
// treated as version 1.
const CurrentVersion = 2

// Evolution stages, in order
const (
	StageEgg   = "egg"
	StageBaby  = "baby"
	StageChild = "child"
	StageAdult = "adult"
)

// Data is the saved game document
type Data struct {
	Version   int            `json:"version"`
	PetID     string         `json:"petId"`
	Name      string         `json:"name"`
	Species   string         `json:"species"`
	Stage     string         `json:"stage"`
	Stats     Stats          `json:"stats"`
	Coins     int            `json:"coins"`
	Inventory map[string]int `json:"inventory"`
	Settings  Settings       `json:"settings"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Stats are the pet's needs, each from 0 to MaxStat
type Stats struct {
	Hunger    int `json:"hunger"`
	Happiness int `json:"happiness"`
	Energy    int `json:"energy"`
	Health    int `json:"health"`
}

// MaxStat is the upper bound of every Stats field
const MaxStat = 100

// Settings holds what the player can change in the settings dialog
type Settings struct {
	// 0 to 100
	Volume    int  `json:"volume"`
	Muted     bool `json:"muted"`
	Vibration bool `json:"vibration"`
}

// DefaultSettings are used for new games and for documents saved before
// settings were persisted.
func DefaultSettings() Settings {
	return Settings{
		Volume:    80,
		Vibration: true,
	}
}

// Default returns the document for a new game: an egg with full stats and
// a fresh pet ID.
func Default() Data {
	return Data{
		Version: CurrentVersion,
		PetID:   uuid.NewString(),
		Species: "botamon",
		Stage:   StageEgg,
		Stats: Stats{
			Hunger:    MaxStat,
			Happiness: MaxStat,
			Energy:    MaxStat,
			Health:    MaxStat,
		},
		Inventory: map[string]int{},
		Settings:  DefaultSettings(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}
