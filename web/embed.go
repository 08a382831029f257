// Package web embeds the demo host page served by the API server.
//
// The page hosts one live gauge. Its theme toggle flips the "dark" and
// "light" classes on <html>, and a MutationObserver plus a
// prefers-color-scheme media query report those signals over the
// websocket session; the server answers with a re-rendered SVG.
//
// Usage in the API server:
//
//	import "github.com/seenimoa/gaugekit/web"
//	fs := web.DistFS()  // returns io/fs.FS rooted at static/
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var dist embed.FS

// DistFS returns a filesystem rooted at the embedded static/ directory.
// This is ready to use with http.FileServerFS or http.FS.
func DistFS() fs.FS {
	sub, err := fs.Sub(dist, "static")
	if err != nil {
		panic("web.DistFS: " + err.Error())
	}
	return sub
}
