package sdkruntime

import (
	"embed"
	"io/fs"
	"sort"
)

// sources are the files copied into every generated SDK. embed.go itself and
// the tests stay behind.
//
//go:embed doc.go auth.go base.go client_credentials.go errors.go invoke.go region.go static_auth.go
var sources embed.FS

// SourceFiles returns the runtime's Go sources by file name, sorted.
func SourceFiles() ([]string, fs.FS) {
	entries, _ := fs.ReadDir(sources, ".")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, sources
}
