package file

import (
	"embed"
	"io/fs"
	"path"
	"regexp"
	"strings"
)

//go:embed defaults/*.txt defaults/README.md
var defaultsFS embed.FS

const promptExt = ".txt"

// defaultPrompts maps prompt names to the shipped templates.
var defaultPrompts = loadDefaults()

func loadDefaults() map[string]string {
	files, err := fs.Glob(defaultsFS, "defaults/*"+promptExt)
	if err != nil {
		panic(err)
	}
	prompts := make(map[string]string, len(files))
	for _, file := range files {
		data, err := defaultsFS.ReadFile(file)
		if err != nil {
			panic(err)
		}
		prompts[strings.TrimSuffix(path.Base(file), promptExt)] = strings.TrimSpace(string(data))
	}
	return prompts
}

func defaultReadme() []byte {
	data, _ := defaultsFS.ReadFile("defaults/README.md")
	return data
}

// placeholder matches {name}; JSON braces in the templates never do.
var placeholder = regexp.MustCompile(`\{[a-z_]+\}`)

// missingPlaceholders lists the placeholders of the default template for
// name that template lacks.
func missingPlaceholders(name, template string) []string {
	var missing []string
	seen := make(map[string]bool)
	for _, p := range placeholder.FindAllString(defaultPrompts[name], -1) {
		if seen[p] {
			continue
		}
		seen[p] = true
		if !strings.Contains(template, p) {
			missing = append(missing, p)
		}
	}
	return missing
}
