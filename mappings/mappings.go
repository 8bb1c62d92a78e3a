// Package mappings holds the mapping documents compiled into the binary.
package mappings

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// DefaultName is the document used when no mapping source is configured.
const DefaultName = "fieldservice"

//go:embed *.yaml
var documents embed.FS

// Lookup returns the embedded document called name, without extension.
func Lookup(name string) ([]byte, error) {
	data, err := documents.ReadFile(strings.TrimSuffix(name, ".yaml") + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("embedded mapping %q: %w", name, fs.ErrNotExist)
	}
	return data, nil
}

// Default returns the field-service mapping document.
func Default() []byte {
	data, err := Lookup(DefaultName)
	if err != nil {
		panic(err)
	}
	return data
}

// Names lists the embedded documents.
func Names() []string {
	entries, err := fs.ReadDir(documents, ".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}
