package jen

import (
	"embed"
	"io/fs"
	"sort"
	"strings"

	"github.com/goliatone/go-jen/pkg/template"
)

const templateExt = ".tpl"

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the bundled example templates (committed under
// templates/) so callers can start generating without writing their own.
//
//	loader := template.NewLoader(template.WithFileSystem(jen.TemplatesFS()))
//	sess, err := session.New(ctx, template.SourceFromFS("user.tpl"),
//		session.WithLoader(loader),
//	)
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// TemplateNames lists the bundled templates without their extension.
func TemplateNames() []string {
	entries, err := fs.ReadDir(TemplatesFS(), ".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), templateExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), templateExt))
	}
	sort.Strings(names)
	return names
}

// BundledTemplate returns the source and loader for a bundled template.
func BundledTemplate(name string) (template.Source, *template.Loader) {
	name = strings.TrimSuffix(name, templateExt) + templateExt
	return template.SourceFromFS(name), template.NewLoader(template.WithFileSystem(TemplatesFS()))
}
