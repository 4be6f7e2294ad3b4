package page

import (
	"embed"
	"io/fs"
)

//go:embed demo/*.yaml
var demoFiles embed.FS

// Demo file names inside DemoFS.
const (
	DemoPage  = "offices.yaml"
	DemoLists = "lists.yaml"
)

// DemoFS returns the bundled demo page and its list fixture.
func DemoFS() fs.FS {
	sub, err := fs.Sub(demoFiles, "demo")
	if err != nil {
		panic(err)
	}
	return sub
}
