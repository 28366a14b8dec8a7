package gamedata

import (
	"context"
	"errors"
	"fmt"

	"github.com/ptgott/digivice/storage"
	"github.com/rs/zerolog/log"
)

// DefaultKey is where the whole game document is stored
const DefaultKey = "digivice_game_data"

// Store loads and saves the game document through a storage.Storage. It
// keeps no copy of the document: every Load reads it again.
type Store struct {
	storage storage.Storage
	key     string
}

// NewStore returns a Store that keeps the document at key, or at DefaultKey
// if key is empty.
func NewStore(s storage.Storage, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{storage: s, key: key}
}

// Key returns the storage key of the document
func (s *Store) Key() string {
	return s.key
}

// Load returns the saved document. If nothing has been saved yet, or the
// saved value can't be parsed, it returns a new default document instead.
// Only failures of the storage medium itself, and documents from a newer
// version of the game, are returned as errors.
func (s *Store) Load(ctx context.Context) (Data, error) {
	raw, ok, err := s.storage.GetItem(ctx, s.key)
	if err != nil {
		return Data{}, fmt.Errorf("can't load the game data: %w", err)
	}
	if !ok {
		log.Debug().Str("key", s.key).Msg("no saved game data: starting a new game")
		return Default(), nil
	}

	d, err := decode(raw)
	if errors.Is(err, ErrCorrupt) {
		log.Warn().
			Err(err).
			Str("key", s.key).
			Msg("can't parse the saved game data: falling back to a new game")
		return Default(), nil
	}
	if err != nil {
		return Data{}, err
	}
	return d, nil
}

// Save serializes d and schedules a single write. Like storage.SetItem, it
// doesn't wait for the write to happen.
func (s *Store) Save(d Data) error {
	d.Version = CurrentVersion
	raw, err := encode(d)
	if err != nil {
		return err
	}
	s.storage.SetItem(s.key, raw)
	return nil
}

// flusher is implemented by storage backends that hold writes back, e.g.,
// storage.Local while its throttle window is open.
type flusher interface {
	Flush(ctx context.Context) error
}

// Update loads the full document, replaces the top-level fields named in p
// and saves the result as one write. It returns the updated document.
//
// Reads don't see writes still waiting on a throttle, so Update flushes the
// storage first if it can. Otherwise, two Updates in the same window would
// each start from the old document and the first patch would be lost.
func (s *Store) Update(ctx context.Context, p Patch) (Data, error) {
	if f, ok := s.storage.(flusher); ok {
		if err := f.Flush(ctx); err != nil {
			return Data{}, fmt.Errorf("can't flush pending writes: %w", err)
		}
	}
	d, err := s.Load(ctx)
	if err != nil {
		return Data{}, err
	}
	n, err := merge(d, p)
	if err != nil {
		return Data{}, err
	}
	if err := s.Save(n); err != nil {
		return Data{}, err
	}
	log.Debug().Int("fields", len(p)).Str("key", s.key).Msg("updated the game data")
	return n, nil
}

// Reset replaces the saved document with a new default one and returns it.
func (s *Store) Reset() (Data, error) {
	d := Default()
	if err := s.Save(d); err != nil {
		return Data{}, err
	}
	log.Info().Str("petId", d.PetID).Msg("reset the game data")
	return d, nil
}

// Remove deletes the saved document. The next Load starts a new game.
func (s *Store) Remove(ctx context.Context) error {
	if err := s.storage.RemoveItem(ctx, s.key); err != nil {
		return fmt.Errorf("can't remove the game data: %w", err)
	}
	return nil
}
