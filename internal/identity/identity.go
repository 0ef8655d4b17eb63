// Package identity resolves and persists the agent's (name, uuid) pair,
// per §6's "Persisted agent identity". It is out of the core pipeline's
// scope but consumed by the supervisor before the pipeline starts.
package identity

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/alisle/zerotrust-track/internal/model"
)

const (
	nameTupleFile = "name_tuple.yaml"
	namesFile     = "names.txt"
	unknownName   = "unknown"
)

// Override carries identity values already pinned in config; either
// field may be the zero value to mean "not set" (§6's first priority
// tier).
type Override struct {
	Name string
	UUID uuid.UUID
}

// nameTuple mirrors the persisted YAML object; both fields are pointers
// so an absent key round-trips as "not set" rather than a zero value.
type nameTuple struct {
	Name *string    `yaml:"name"`
	UUID *uuid.UUID `yaml:"uuid"`
}

// Resolve implements the three-tier resolution of §6: config override,
// then the persisted name_tuple.yaml, then a fresh UUID with a name drawn
// uniformly from names.txt (or "unknown" if that file is empty or
// missing). The persisted file is rewritten with the resolved identity
// before returning, so a second call against the same directory yields
// the same result (§8 property 6, identity idempotence).
func Resolve(dataDir string, override Override) (model.AgentIdentity, error) {
	tuplePath := filepath.Join(dataDir, nameTupleFile)
	namesPath := filepath.Join(dataDir, namesFile)

	persisted := loadNameTuple(tuplePath)
	names := loadNames(namesPath)

	id := model.AgentIdentity{}

	switch {
	case override.UUID != uuid.Nil:
		id.UUID = override.UUID
	case persisted.UUID != nil:
		id.UUID = *persisted.UUID
	default:
		id.UUID = uuid.New()
	}

	switch {
	case override.Name != "":
		id.Name = override.Name
	case persisted.Name != nil:
		id.Name = *persisted.Name
	default:
		id.Name = pickName(names)
	}

	if err := saveNameTuple(tuplePath, id); err != nil {
		return model.AgentIdentity{}, fmt.Errorf("persist agent identity: %w", err)
	}
	return id, nil
}

func pickName(names []string) string {
	if len(names) == 0 {
		return unknownName
	}
	return names[rand.Intn(len(names))]
}

func loadNameTuple(path string) nameTuple {
	data, err := os.ReadFile(path)
	if err != nil {
		return nameTuple{}
	}
	var t nameTuple
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nameTuple{}
	}
	return t
}

func loadNames(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		names = append(names, line)
	}
	return names
}

func saveNameTuple(path string, id model.AgentIdentity) error {
	data, err := yaml.Marshal(nameTuple{Name: &id.Name, UUID: &id.UUID})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
