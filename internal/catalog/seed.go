// Package catalog holds the built-in seed agents and the pure functions that
// turn seed records, stored overrides and custom agents into the collection
// shown on the gallery.
//
// The seed catalog is parsed once from the embedded seed.yaml at package
// initialization and is never mutated afterwards; every accessor hands out
// deep copies. Runtime edits to a seed agent live in the override store.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"
)

//go:embed seed.yaml
var seedYAML []byte

type seedFile struct {
	Agents []model.AgentRecord `yaml:"agents"`
}

var (
	seedRecords = mustLoadSeed(seedYAML)
	seedIndex   = indexByID(seedRecords)
)

// Seed returns the default agents in their compiled order.
func Seed() []model.AgentRecord {
	out := make([]model.AgentRecord, len(seedRecords))
	for i, a := range seedRecords {
		out[i] = a.Clone()
	}
	return out
}

// SeedByID returns the default agent with the given id.
func SeedByID(id string) (model.AgentRecord, bool) {
	i, ok := seedIndex[id]
	if !ok {
		return model.AgentRecord{}, false
	}
	return seedRecords[i].Clone(), true
}

// IsSeedID reports whether id belongs to a default agent.
func IsSeedID(id string) bool {
	_, ok := seedIndex[id]
	return ok
}

// LoadSeed parses and validates a seed document. Unknown keys, duplicate ids
// and invalid records are rejected.
func LoadSeed(data []byte) ([]model.AgentRecord, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f seedFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("catalog: seed document is empty")
		}
		return nil, fmt.Errorf("catalog: parse seed: %w", err)
	}

	seen := make(map[string]bool, len(f.Agents))
	for i := range f.Agents {
		a := &f.Agents[i]
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("catalog: seed agent %d (%q): %w", i, a.ID, err)
		}
		if seen[a.ID] {
			return nil, fmt.Errorf("catalog: duplicate seed id %q", a.ID)
		}
		seen[a.ID] = true
		if a.Tags == nil {
			a.Tags = []string{}
		}
	}
	return f.Agents, nil
}

func mustLoadSeed(data []byte) []model.AgentRecord {
	agents, err := LoadSeed(data)
	if err != nil {
		panic(err)
	}
	return agents
}

func indexByID(agents []model.AgentRecord) map[string]int {
	idx := make(map[string]int, len(agents))
	for i, a := range agents {
		idx[a.ID] = i
	}
	return idx
}
