package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing files"`

	out io.Writer
}

const starterConfig = `source: ./content
output: ./public
templates: ./templates
context:
  site_name: My Site
shortcodes:
  note: '<aside class="note">{{index .Args 0}}</aside>'
markdown:
  unsafe: true
  typographer: true
rules:
  - name: posts
    patterns: ["posts/**/*.md"]
    filters: [shortcodes, markdown]
    template: page.html
    route: nice
  - name: index
    patterns: ["index.md"]
    filters: [markdown]
    template: page.html
    route: ext:html
copies:
  - patterns: ["static/**/*"]
mines:
  - patterns: ["posts/**/*.md"]
    extractors: [metadata, url, summary]
    rule: index
    key: posts
serve:
  port: 1316
  live_reload: true
logging:
  level: info
  format: text
`

var starterFiles = map[string]string{
	"content/index.md": `---
title: Home
---
# {{.site_name}}

{{range .posts}}- [{{.title}}]({{.url}}): {{.summary}}
{{end}}`,
	"content/posts/hello.md": `---
title: Hello
---
Welcome to your new site. \note{Edit content/posts/hello.md to change this post.}
`,
	"templates/page.html": `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.title}} - {{.site_name}}</title></head>
<body>
{{.content}}
</body>
</html>
`,
	"content/static/style.css": "body { font-family: sans-serif; }\n",
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	switch filepath.Ext(root.Config) {
	case ".yaml", ".yml":
	default:
		return errors.ValidationError("init writes a YAML site file").
			WithContext("path", root.Config).
			UserAction().
			Build()
	}
	dir := filepath.Dir(root.Config)
	files := map[string]string{filepath.Base(root.Config): starterConfig}
	for name, content := range starterFiles {
		files[filepath.FromSlash(name)] = content
	}

	if !i.Force {
		for name := range files {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return errors.ValidationError("file already exists; use --force to overwrite").
					WithContext("path", p).
					UserAction().
					Build()
			}
		}
	}

	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return errors.FileSystemError("failed to create directory").WithCause(err).WithContext("path", p).Build()
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			return errors.FileSystemError("failed to write file").WithCause(err).WithContext("path", p).Build()
		}
	}

	w := i.out
	if w == nil {
		w = os.Stdout
	}
	_, _ = fmt.Fprintf(w, "Initialized site in %s\n", dir)
	return nil
}
