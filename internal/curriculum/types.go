package curriculum

import "fmt"

// AllTopics is the topic sentinel meaning "no topic focus".
const AllTopics = "All Topics"

// Settings is the learner's current selection. Every generated piece of
// content is personalised from it.
type Settings struct {
	Grade    int    `json:"grade" yaml:"grade"`
	Language string `json:"language" yaml:"language"`
	Subject  string `json:"subject" yaml:"subject"`
	Topic    string `json:"topic" yaml:"topic"`
}

// HasTopic reports whether a specific topic (not the sentinel) is selected.
func (s Settings) HasTopic() bool {
	return s.Topic != "" && s.Topic != AllTopics
}

func (s Settings) String() string {
	return fmt.Sprintf("grade=%d language=%s subject=%s topic=%s", s.Grade, s.Language, s.Subject, s.Topic)
}

// Language is a selectable answer language.
type Language struct {
	Name string `json:"name" yaml:"name"`
	Code string `json:"code" yaml:"code"` // BCP-47
}

// GradeLevel lists the subjects offered for one grade.
type GradeLevel struct {
	Grade     int      `json:"grade" yaml:"grade"`
	Subjects  []string `json:"subjects" yaml:"subjects"`
	Challenge string   `json:"challenge,omitempty" yaml:"challenge"`
}

// Subject holds the topic list for a subject.
type Subject struct {
	Name   string   `json:"name" yaml:"name"`
	Topics []string `json:"topics" yaml:"topics"`
}

type catalogFile struct {
	Defaults  Settings     `yaml:"defaults"`
	Languages []Language   `yaml:"languages"`
	Grades    []GradeLevel `yaml:"grades"`
	Subjects  []Subject    `yaml:"subjects"`
	Tips      []string     `yaml:"tips"`
}
