// Package corpus loads conversation corpora in the YAML layout used by the
// chatterbot-corpus project:
//
//	categories:
//	- greetings
//	conversations:
//	- - Hello
//	  - Hi
package corpus

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data
var bundled embed.FS

// A Corpus is one file of example conversations.
type Corpus struct {
	Name          string
	Categories    []string
	Conversations [][]string
}

type document struct {
	Categories    []string        `yaml:"categories"`
	Conversations [][]interface{} `yaml:"conversations"`
}

// Bundled lists the names of the corpora shipped with the binary,
// e.g. "english.greetings".
func Bundled() []string {
	var names []string
	fs.WalkDir(bundled, "data", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isYAML(p) {
			return nil
		}
		rel := strings.TrimPrefix(p, "data/")
		names = append(names, strings.ReplaceAll(strings.TrimSuffix(rel, path.Ext(rel)), "/", "."))
		return nil
	})
	sort.Strings(names)
	return names
}

// Load resolves a corpus reference. A dotted name such as "english" or
// "english.greetings" selects bundled corpora; anything else is read from
// the filesystem as a YAML file or a directory of YAML files.
func Load(ref string) ([]Corpus, error) {
	if ref == "" {
		return nil, errors.New("missing corpus name")
	}

	if corpora, ok, err := loadBundled(ref); ok || err != nil {
		return corpora, err
	}

	info, err := os.Stat(ref)
	if err != nil {
		return nil, fmt.Errorf("unknown corpus %q: %w", ref, err)
	}
	if !info.IsDir() {
		c, err := loadFile(os.DirFS(filepath.Dir(ref)), filepath.Base(ref))
		if err != nil {
			return nil, err
		}
		return []Corpus{c}, nil
	}
	return loadDir(os.DirFS(ref), ".")
}

func loadBundled(ref string) ([]Corpus, bool, error) {
	p := path.Join("data", strings.ReplaceAll(ref, ".", "/"))

	if info, err := fs.Stat(bundled, p); err == nil && info.IsDir() {
		corpora, err := loadDir(bundled, p)
		return corpora, true, err
	}
	for _, ext := range []string{".yml", ".yaml"} {
		if _, err := fs.Stat(bundled, p+ext); err == nil {
			c, err := loadFile(bundled, p+ext)
			if err != nil {
				return nil, true, err
			}
			return []Corpus{c}, true, nil
		}
	}
	return nil, false, nil
}

func loadDir(fsys fs.FS, dir string) ([]Corpus, error) {
	var corpora []Corpus
	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(p) {
			return nil
		}
		c, err := loadFile(fsys, p)
		if err != nil {
			return err
		}
		corpora = append(corpora, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(corpora) == 0 {
		return nil, fmt.Errorf("no corpus files in %s", dir)
	}
	return corpora, nil
}

func loadFile(fsys fs.FS, name string) (Corpus, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Corpus{}, fmt.Errorf("failed to read corpus %s: %w", name, err)
	}
	c, err := Parse(data)
	if err != nil {
		return Corpus{}, fmt.Errorf("failed to parse corpus %s: %w", name, err)
	}
	c.Name = strings.TrimSuffix(path.Base(name), path.Ext(name))
	return c, nil
}

// Parse decodes one corpus document. Non-string lines such as numbers
// are kept in their YAML text form.
func Parse(data []byte) (Corpus, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Corpus{}, err
	}

	c := Corpus{Categories: doc.Categories}
	for i, conv := range doc.Conversations {
		lines := make([]string, 0, len(conv))
		for _, line := range conv {
			switch v := line.(type) {
			case string:
				lines = append(lines, v)
			case nil:
				return Corpus{}, fmt.Errorf("conversation %d has an empty line", i+1)
			default:
				lines = append(lines, fmt.Sprint(v))
			}
		}
		if len(lines) > 0 {
			c.Conversations = append(c.Conversations, lines)
		}
	}
	return c, nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".yml" || ext == ".yaml"
}
