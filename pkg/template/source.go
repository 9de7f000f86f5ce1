package template

import (
	"fmt"
	"net/url"
	"path/filepath"
)

// Source identifies where template text originates so loaders can operate on
// files, fs.FS entries, URLs or inline strings alike.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile   SourceKind = "file"
	SourceKindFS     SourceKind = "fs"
	SourceKindURL    SourceKind = "url"
	SourceKindString SourceKind = "string"
)

type fileSource struct {
	path string
}

func (s fileSource) Location() string { return s.path }
func (s fileSource) Kind() SourceKind { return SourceKindFile }

// SourceFromFile returns a Source pointing to a file path.
func SourceFromFile(path string) Source {
	return fileSource{path: filepath.Clean(path)}
}

type fsSource struct {
	name string
}

func (s fsSource) Location() string { return s.name }
func (s fsSource) Kind() SourceKind { return SourceKindFS }

// SourceFromFS returns a Source identifying a template inside the fs.FS given
// to the loader with WithFileSystem.
func SourceFromFS(name string) Source {
	return fsSource{name: name}
}

type urlSource struct {
	raw string
}

func (s urlSource) Location() string { return s.raw }
func (s urlSource) Kind() SourceKind { return SourceKindURL }

// SourceFromURL parses the supplied URL string and returns a Source. It panics
// if the URL is invalid to surface configuration mistakes early.
func SourceFromURL(raw string) Source {
	if raw == "" {
		panic("template: empty URL source")
	}
	if _, err := url.ParseRequestURI(raw); err != nil {
		panic(fmt.Sprintf("template: invalid URL %q: %v", raw, err))
	}
	return urlSource{raw: raw}
}

// stringSource carries inline template text.
type stringSource struct {
	name string
	text string
}

func (s stringSource) Location() string { return s.name }
func (s stringSource) Kind() SourceKind { return SourceKindString }

// SourceFromString wraps inline template text. name is only used in error
// messages; an empty name becomes "<string>".
func SourceFromString(name, text string) Source {
	if name == "" {
		name = "<string>"
	}
	return stringSource{name: name, text: text}
}
