package ai

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultCategory is assigned when classification fails or the generator
// returns a label outside the fixed set.
const DefaultCategory = "Other"

//go:embed categories.yaml
var categoriesYAML []byte

type categoryFile struct {
	Categories []string `yaml:"categories"`
}

var (
	categories    []string
	categoryIndex map[string]string
)

func init() {
	var file categoryFile
	if err := yaml.Unmarshal(categoriesYAML, &file); err != nil {
		panic(fmt.Sprintf("failed to parse embedded category table: %v", err))
	}
	if len(file.Categories) == 0 {
		panic("embedded category table is empty")
	}

	categories = file.Categories
	categoryIndex = make(map[string]string, len(categories))
	for _, cat := range categories {
		categoryIndex[strings.ToLower(cat)] = cat
	}
}

// Categories returns the full fixed category set in canonical order. The
// returned slice is shared read-only state and must not be mutated.
func Categories() []string {
	return categories
}

// CanonicalCategory resolves a generator-returned label to its canonical
// form, normalizing case and surrounding whitespace/punctuation.
func CanonicalCategory(raw string) (string, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.Trim(cleaned, `"'`)
	cleaned = strings.TrimSuffix(cleaned, ".")
	cleaned = strings.TrimSpace(cleaned)

	canonical, ok := categoryIndex[strings.ToLower(cleaned)]
	return canonical, ok
}

// IsKnownCategory reports membership in the fixed category set.
func IsKnownCategory(label string) bool {
	_, ok := CanonicalCategory(label)
	return ok
}
