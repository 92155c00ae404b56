package assets

import (
	"embed"
	"io/fs"
)

//go:embed words.json sql/*.sql
var FS embed.FS

// DefaultWords returns the embedded word catalog as JSON.
func DefaultWords() ([]byte, error) {
	return FS.ReadFile("words.json")
}

// Migrations returns the embedded SQL migrations rooted at sql/.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "sql")
	if err != nil {
		// sql/ is embedded at build time; Sub only fails on an invalid path.
		panic(err)
	}
	return sub
}
