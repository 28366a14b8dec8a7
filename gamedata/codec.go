package gamedata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrCorrupt means the stored value isn't a JSON game document
	ErrCorrupt = errors.New("saved game data is corrupt")
	// ErrUnsupportedVersion means the document was written by a newer
	// version of the game. We refuse to load it rather than overwrite it
	// with a default.
	ErrUnsupportedVersion = errors.New("saved game data has an unsupported version")
	// ErrInvalidPatch means an update names a field the document doesn't
	// have, or gives a field a value of the wrong type.
	ErrInvalidPatch = errors.New("invalid game data update")
)

// Patch is a partial document. Keys are top-level JSON field names of Data
// and values replace the current values wholesale, e.g.,
// Patch{"coins": 20, "stats": stats}.
type Patch map[string]interface{}

// decode parses a stored document and migrates it to CurrentVersion.
func decode(raw string) (Data, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Data{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if fields == nil {
		return Data{}, fmt.Errorf("%w: the document is null", ErrCorrupt)
	}

	// Documents from before versioning have no version field
	version := 1
	if v, ok := fields["version"]; ok {
		if err := json.Unmarshal(v, &version); err != nil {
			return Data{}, fmt.Errorf("%w: can't read the version: %v", ErrCorrupt, err)
		}
	}
	if version > CurrentVersion || version < 1 {
		return Data{}, fmt.Errorf("%w: %v", ErrUnsupportedVersion, version)
	}

	var d Data
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return Data{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	migrate(&d, fields, version)
	return d, nil
}

// migrate upgrades d, which was stored as version from, in place. fields is
// the raw document, which lets migrations tell missing fields from zero
// values.
func migrate(d *Data, fields map[string]json.RawMessage, from int) {
	if from < 2 {
		// Version 1 had no pet ID and didn't persist settings
		if d.PetID == "" {
			d.PetID = uuid.NewString()
		}
		if _, ok := fields["settings"]; !ok {
			d.Settings = DefaultSettings()
		}
	}
	if d.Inventory == nil {
		d.Inventory = map[string]int{}
	}
	d.Version = CurrentVersion
}

func encode(d Data) (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("can't serialize the game data: %v", err)
	}
	return string(b), nil
}

// merge returns d with the top-level fields in p replaced. It's a shallow
// merge: a patch to "stats" replaces all of the stats.
func merge(d Data, p Patch) (Data, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return Data{}, fmt.Errorf("can't serialize the game data: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return Data{}, fmt.Errorf("can't serialize the game data: %v", err)
	}

	for k, v := range p {
		if k == "version" {
			return Data{}, fmt.Errorf("%w: the version can't be updated", ErrInvalidPatch)
		}
		if _, ok := fields[k]; !ok {
			return Data{}, fmt.Errorf("%w: unknown field %q", ErrInvalidPatch, k)
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return Data{}, fmt.Errorf("%w: can't serialize %q: %v", ErrInvalidPatch, k, err)
		}
		fields[k] = raw
	}

	b, err = json.Marshal(fields)
	if err != nil {
		return Data{}, fmt.Errorf("can't serialize the game data: %v", err)
	}
	var out Data
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return Data{}, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	if out.Inventory == nil {
		out.Inventory = map[string]int{}
	}
	return out, nil
}
