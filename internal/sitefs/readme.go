package sitefs

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxSlugLen matches the hosting service's repository name limit.
const MaxSlugLen = 96

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a project name into a repository-safe identifier.
func Slug(name string) string {
	s := nonSlugRe.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxSlugLen {
		s = strings.TrimRight(s[:MaxSlugLen], "-")
	}
	return s
}

// Colors are the theme colors a hosted static site accepts.
var Colors = []string{"red", "yellow", "green", "blue", "indigo", "purple", "pink", "gray"}

// FrontMatter is the metadata block at the top of a project's README.
type FrontMatter struct {
	Title     string   `yaml:"title"`
	ColorFrom string   `yaml:"colorFrom"`
	ColorTo   string   `yaml:"colorTo"`
	Emoji     string   `yaml:"emoji"`
	SDK       string   `yaml:"sdk"`
	Pinned    bool     `yaml:"pinned"`
	Tags      []string `yaml:"tags"`
}

// NewFrontMatter returns front matter for a new project with random colors.
func NewFrontMatter(title string) FrontMatter {
	return FrontMatter{
		Title:     title,
		ColorFrom: Colors[rand.Intn(len(Colors))],
		ColorTo:   Colors[rand.Intn(len(Colors))],
		Emoji:     "🐳",
		SDK:       "static",
		Tags:      []string{"sitegen"},
	}
}

// Readme renders a README.md for a newly created project.
func Readme(fm FrontMatter) (string, error) {
	data, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("encoding front matter: %w", err)
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(data)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n\nThis project was created with sitegen.\n", fm.Title)
	return b.String(), nil
}

// ParseReadme reads the front matter back out of a README.
func ParseReadme(content string) (FrontMatter, bool) {
	var fm FrontMatter
	rest, ok := strings.CutPrefix(content, "---\n")
	if !ok {
		return fm, false
	}
	block, _, ok := strings.Cut(rest, "\n---")
	if !ok {
		return fm, false
	}
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return fm, false
	}
	return fm, true
}
