// Package remoteref builds the remote storage reference recorded for each
// cataloged file.
package remoteref

import (
	"net/url"
	"path/filepath"
	"strings"

	"soundcatalog/internal/config"
)

// DefaultTemplate is the public Cloud Storage object URL layout.
const DefaultTemplate = "https://storage.googleapis.com/{bucket}/{source}/{filename}"

// Generator expands URL templates. It holds no mutable state.
type Generator struct {
	bucket    string
	template  string
	perSource map[string]string
}

// New returns a Generator using template for every source without its own
// entry in perSource. An empty template falls back to DefaultTemplate.
func New(bucket, template string, perSource map[string]string) *Generator {
	if strings.TrimSpace(template) == "" {
		template = DefaultTemplate
	}
	overrides := make(map[string]string, len(perSource))
	for name, tmpl := range perSource {
		if strings.TrimSpace(tmpl) != "" {
			overrides[strings.ToLower(name)] = tmpl
		}
	}
	return &Generator{bucket: bucket, template: template, perSource: overrides}
}

// FromConfig builds a Generator from the storage section and per-source templates.
func FromConfig(cfg *config.Config) *Generator {
	perSource := make(map[string]string, len(cfg.Sources))
	for _, src := range cfg.Sources {
		perSource[src.Name] = src.URLTemplate
	}
	return New(cfg.Storage.Bucket, cfg.Storage.URLTemplate, perSource)
}

// URL returns the reference for filename within source. Only the base name of
// filename is used, and each substituted segment is path escaped.
func (g *Generator) URL(source, filename string) string {
	tmpl := g.template
	if override, ok := g.perSource[strings.ToLower(source)]; ok {
		tmpl = override
	}
	return strings.NewReplacer(
		"{bucket}", url.PathEscape(g.bucket),
		"{source}", url.PathEscape(source),
		"{filename}", url.PathEscape(filepath.Base(filename)),
	).Replace(tmpl)
}

// InferSource names a source root from its path: kit folders are recognized
// by name and everything else belongs to the general library.
func InferSource(path string) string {
	lower := strings.ToLower(filepath.ToSlash(path))
	for _, known := range []string{"mixkit", "filmcow"} {
		if strings.Contains(lower, known) {
			return known
		}
	}
	return "google"
}
