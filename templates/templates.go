// Package templates embeds the parameter templates shipped with bartune.
package templates

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// Names of the shipped templates.
const (
	AccuracyFirst = "AccuracyFirstTemplate.json"
	SpeedFirst    = "SpeedFirstTemplate.json"
)

// FS holds the shipped template files.
//
//go:embed *.json
var FS embed.FS

// Read returns the content of a shipped template.
func Read(name string) ([]byte, error) {
	return fs.ReadFile(FS, path.Clean(name))
}

// List returns the names of all shipped templates.
func List() ([]string, error) {
	entries, err := fs.ReadDir(FS, ".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
