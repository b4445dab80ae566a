// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package catalog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// document is the on-disk catalog layout. Both a bare list of places and an
// object with a "places" key are accepted.
type document struct {
	Places []Place `json:"places" yaml:"places"`
}

// LoadFile reads a catalog from a JSON or YAML file, chosen by extension.
func LoadFile(path string) (*MemoryStore, error) {
	places, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(places)
}

// LoadFiles reads and merges several catalog files. A place id may appear
// in only one of them.
func LoadFiles(paths ...string) (*MemoryStore, error) {
	var all []Place
	for _, path := range paths {
		places, err := readFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, places...)
	}
	return NewMemoryStore(all)
}

func readFile(path string) ([]Place, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var places []Place
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		places, err = decodeYAML(data)
	default:
		places, err = decodeJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return places, nil
}

func decodeJSON(data []byte) ([]Place, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var places []Place
		if err := json.Unmarshal(trimmed, &places); err != nil {
			return nil, err
		}
		return places, nil
	}
	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	return doc.Places, nil
}

func decodeYAML(data []byte) ([]Place, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	if node.Content[0].Kind == yaml.SequenceNode {
		var places []Place
		if err := node.Decode(&places); err != nil {
			return nil, err
		}
		return places, nil
	}
	var doc document
	if err := node.Decode(&doc); err != nil {
		return nil, err
	}
	return doc.Places, nil
}
