package app

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vedsharma/reqdesk/internal/model"
)

// envFile is the on-disk layout accepted by ParseEnvironments:
//
//	environments:
//	  - name: dev
//	    variables:
//	      host: localhost:8080
type envFile struct {
	Environments []envEntry `yaml:"environments"`
}

type envEntry struct {
	ID        string            `yaml:"id"`
	Name      string            `yaml:"name"`
	Variables map[string]string `yaml:"variables"`
}

// ParseEnvironments decodes a YAML environment file. Entries without an id
// get a fresh one; names must be present and unique.
func ParseEnvironments(data []byte) ([]model.Environment, error) {
	var file envFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse environments: %w", err)
	}

	envs := make([]model.Environment, 0, len(file.Environments))
	seen := make(map[string]bool, len(file.Environments))
	for i, e := range file.Environments {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("environment %d: name is required", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("environment %q is defined twice", name)
		}
		seen[name] = true

		id := e.ID
		if id == "" {
			id = model.NewID()
		}
		vars := e.Variables
		if vars == nil {
			vars = map[string]string{}
		}
		envs = append(envs, model.Environment{ID: id, Name: name, Variables: vars})
	}
	return envs, nil
}

// FindEnvironment resolves an environment by id or name
func FindEnvironment(envs []model.Environment, ref string) (model.Environment, error) {
	for _, e := range envs {
		if e.ID == ref {
			return e, nil
		}
	}
	for _, e := range envs {
		if e.Name == ref {
			return e, nil
		}
	}
	return model.Environment{}, fmt.Errorf("environment %s: %w", ref, ErrNotFound)
}
