// Package embedded provides embedded static assets for the application.
package embedded

import (
	"embed"
	"io/fs"
)

// Files contains the progressive web app assets served at the site root:
// - manifest.json - install metadata
// - sw.js - network-first service worker with an offline cache
//
//go:embed static
var Files embed.FS

// Static returns the asset directory with the "static/" prefix stripped.
func Static() fs.FS {
	sub, err := fs.Sub(Files, "static")
	if err != nil {
		// Unreachable: the directory is embedded at build time
		panic(err)
	}
	return sub
}
