// Package curriculum holds the static grade, subject, topic and language
// tables the tutor personalises content from.
package curriculum

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"slices"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var (
	//go:embed catalog.yaml
	defaultCatalogYAML []byte

	//go:embed catalog.schema.json
	catalogSchemaJSON []byte
)

// ErrInvalidSettings is returned when a selection violates the catalog.
var ErrInvalidSettings = errors.New("invalid settings")

const defaultChallenge = "What's your favorite science topic and why?"

var (
	fallbackSubjects = []string{"General Science"}
	fallbackTopics   = []string{"Basic Concepts", "Advanced Topics", "Applications"}
)

// Catalog is the immutable curriculum lookup table.
type Catalog struct {
	file      catalogFile
	grades    map[int]GradeLevel
	topics    map[string][]string
	languages map[string]language.Tag
}

// Default parses the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalogYAML)
}

// Load returns the catalog at path, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	slog.Info("curriculum loaded", "path", path, "grades", len(c.grades), "subjects", len(c.topics))
	return c, nil
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	c := &Catalog{
		file:      file,
		grades:    make(map[int]GradeLevel, len(file.Grades)),
		topics:    make(map[string][]string, len(file.Subjects)),
		languages: make(map[string]language.Tag, len(file.Languages)),
	}
	for _, l := range file.Languages {
		tag, err := language.Parse(l.Code)
		if err != nil {
			return nil, fmt.Errorf("language %s: invalid code %q: %w", l.Name, l.Code, err)
		}
		c.languages[l.Name] = tag
	}
	for _, s := range file.Subjects {
		c.topics[s.Name] = s.Topics
	}
	for _, g := range file.Grades {
		for _, subject := range g.Subjects {
			if _, ok := c.topics[subject]; !ok {
				return nil, fmt.Errorf("grade %d: subject %q has no topic list", g.Grade, subject)
			}
		}
		c.grades[g.Grade] = g
	}
	if err := c.ValidateSettings(file.Defaults); err != nil {
		return nil, fmt.Errorf("defaults: %w", err)
	}
	return c, nil
}

func validateSchema(doc any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(catalogSchemaJSON),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("validating catalog: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("catalog does not match schema: %v", msgs)
	}
	return nil
}

// DefaultSettings returns the selection a new session starts with.
func (c *Catalog) DefaultSettings() Settings {
	return c.file.Defaults
}

// Languages returns the selectable languages in display order.
func (c *Catalog) Languages() []Language {
	return slices.Clone(c.file.Languages)
}

// LanguageTag returns the BCP-47 tag for a language name, English if unknown.
func (c *Catalog) LanguageTag(name string) language.Tag {
	if tag, ok := c.languages[name]; ok {
		return tag
	}
	return language.English
}

// Grades returns all grades in ascending order.
func (c *Catalog) Grades() []int {
	grades := make([]int, 0, len(c.grades))
	for g := range c.grades {
		grades = append(grades, g)
	}
	sort.Ints(grades)
	return grades
}

// SubjectsForGrade returns the subjects offered for a grade.
func (c *Catalog) SubjectsForGrade(grade int) []string {
	if g, ok := c.grades[grade]; ok {
		return slices.Clone(g.Subjects)
	}
	return slices.Clone(fallbackSubjects)
}

// TopicsFor returns the topics of a subject.
func (c *Catalog) TopicsFor(subject string) []string {
	if topics, ok := c.topics[subject]; ok {
		return slices.Clone(topics)
	}
	return slices.Clone(fallbackTopics)
}

// TopicOptions returns the topic selector entries: the sentinel first.
func (c *Catalog) TopicOptions(subject string) []string {
	return append([]string{AllTopics}, c.TopicsFor(subject)...)
}

// Challenge returns the daily challenge question for a grade.
func (c *Catalog) Challenge(grade int) string {
	if g, ok := c.grades[grade]; ok && g.Challenge != "" {
		return g.Challenge
	}
	return defaultChallenge
}

// Tips returns the learning tips.
func (c *Catalog) Tips() []string {
	return slices.Clone(c.file.Tips)
}

// RandomTip picks one learning tip.
func (c *Catalog) RandomTip() string {
	if len(c.file.Tips) == 0 {
		return ""
	}
	return c.file.Tips[rand.IntN(len(c.file.Tips))]
}

// ValidateSettings checks that the language is known, the subject belongs
// to the grade and the topic belongs to the subject (or is AllTopics).
// Matching is exact and case-sensitive.
func (c *Catalog) ValidateSettings(s Settings) error {
	g, ok := c.grades[s.Grade]
	if !ok {
		return fmt.Errorf("%w: unknown grade %d", ErrInvalidSettings, s.Grade)
	}
	if _, ok := c.languages[s.Language]; !ok {
		return fmt.Errorf("%w: unknown language %q", ErrInvalidSettings, s.Language)
	}
	if !slices.Contains(g.Subjects, s.Subject) {
		return fmt.Errorf("%w: subject %q is not offered for grade %d", ErrInvalidSettings, s.Subject, s.Grade)
	}
	if s.Topic != AllTopics && !slices.Contains(c.topics[s.Subject], s.Topic) {
		return fmt.Errorf("%w: topic %q is not part of %s", ErrInvalidSettings, s.Topic, s.Subject)
	}
	return nil
}

// SearchTopics ranks a subject's topics by fuzzy match against query.
// An empty query returns every topic in catalog order.
func (c *Catalog) SearchTopics(subject, query string) []string {
	topics := c.TopicsFor(subject)
	if query == "" {
		return topics
	}
	ranks := fuzzy.RankFindFold(query, topics)
	sort.Sort(ranks)
	out := make([]string, len(ranks))
	for i, r := range ranks {
		out[i] = r.Target
	}
	return out
}
