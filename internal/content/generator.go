package content

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/p-n-ai/sciencegpt/internal/ai"
	"github.com/p-n-ai/sciencegpt/internal/curriculum"
	"github.com/p-n-ai/sciencegpt/internal/video"
)

// Content served when generation fails. Never cached.
var (
	fallbackSuggestions = []string{
		"What is the structure of an atom?",
		"How do plants make their food?",
		"What causes the seasons to change?",
		"Why is water important for living things?",
	}
	fallbackFact = Fact{
		Fact:        "The human brain contains approximately 86 billion neurons!",
		Explanation: "Each neuron can connect to thousands of other neurons, creating an incredibly complex network that allows us to think, learn, and remember.",
	}
)

const fallbackAnswerFormat = "I apologize, but I'm having trouble answering your question right now. Please try again or ask a different question about %s."

// FallbackSuggestions returns the static questions served on failure.
func FallbackSuggestions() []string {
	return slices.Clone(fallbackSuggestions)
}

// LanguageTagger maps a language name to its BCP-47 tag.
type LanguageTagger interface {
	LanguageTag(name string) language.Tag
}

// GeneratorConfig holds dependencies for the content generator.
type GeneratorConfig struct {
	AI        ai.Completer
	Video     video.Searcher // nil disables video lookup
	Languages LanguageTagger // nil searches videos in English
	Model     string         // empty uses the provider default
}

// Generator produces suggestions, facts and answers from the AI gateway.
type Generator struct {
	ai        ai.Completer
	video     video.Searcher
	languages LanguageTagger
	model     string
}

// NewGenerator creates a content generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	searcher := cfg.Video
	if searcher == nil {
		searcher = video.Disabled{}
	}
	return &Generator{
		ai:        cfg.AI,
		video:     searcher,
		languages: cfg.Languages,
		model:     cfg.Model,
	}
}

// Suggestions is the outcome of a suggestion lookup.
type Suggestions struct {
	Questions []string `json:"questions"`
	Generated bool     `json:"-"` // a remote call was made
	Fallback  bool     `json:"fallback,omitempty"`
}

// FactResult is the outcome of a fact lookup.
type FactResult struct {
	Fact
	Generated bool `json:"-"`
	Fallback  bool `json:"fallback,omitempty"`
}

// Answer is the tutor's reply to a question.
type Answer struct {
	Text     string `json:"text"`
	VideoURL string `json:"video_url,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
}

// Suggestions returns the question suggestions for s, regenerating them
// when the cache gate requires it.
func (g *Generator) Suggestions(ctx context.Context, c *Cache, s curriculum.Settings) Suggestions {
	key := Key(s.Grade, s.Subject, s.Language, s.Topic)
	if !c.NeedSuggestions(key) {
		return Suggestions{Questions: slices.Clone(c.Suggestions)}
	}
	c.SettingsApplied = false

	text, err := g.complete(ctx, ai.CompletionRequest{
		Messages:    SuggestionPrompt(s),
		Temperature: suggestionTemperature,
		MaxTokens:   suggestionMaxTokens,
		Task:        ai.TaskSuggestions,
	})
	var questions []string
	if err == nil {
		questions = ParseSuggestions(text)
		if len(questions) == 0 {
			err = fmt.Errorf("no questions in response")
		}
	}
	if err != nil {
		slog.Warn("suggestion generation failed, using fallback", "settings", s.String(), "error", err)
		return Suggestions{Questions: FallbackSuggestions(), Generated: true, Fallback: true}
	}

	c.StoreSuggestions(key, questions)
	return Suggestions{Questions: questions, Generated: true}
}

// Fact returns the fact of the day for s. Facts are keyed without the
// display language and stay fresh for FactTTL.
func (g *Generator) Fact(ctx context.Context, c *Cache, s curriculum.Settings, now time.Time) FactResult {
	key := FactKey(s.Grade, s.Subject, s.Topic)
	if !c.NeedFact(key, now) {
		f, _ := c.FactFresh(key, now)
		return FactResult{Fact: f}
	}

	text, err := g.complete(ctx, ai.CompletionRequest{
		Messages:    FactPrompt(s),
		Temperature: factTemperature,
		MaxTokens:   factMaxTokens,
		Task:        ai.TaskFact,
	})
	if err != nil {
		slog.Warn("fact generation failed, using fallback", "settings", s.String(), "error", err)
		f := fallbackFact
		f.CreatedAt = now
		return FactResult{Fact: f, Generated: true, Fallback: true}
	}

	f := ParseFact(text)
	f.CreatedAt = now
	c.StoreFact(key, f)
	return FactResult{Fact: f, Generated: true}
}

// Answer responds to a question and attaches a video when one is found.
// The video lookup only runs after a successful answer.
func (g *Generator) Answer(ctx context.Context, s curriculum.Settings, question string) Answer {
	text, err := g.complete(ctx, ai.CompletionRequest{
		Messages:    AnswerPrompt(s, question),
		Temperature: answerTemperature,
		MaxTokens:   answerMaxTokens,
		Task:        ai.TaskAnswer,
	})
	if err != nil {
		slog.Warn("answer generation failed, using fallback", "settings", s.String(), "error", err)
		return Answer{Text: fmt.Sprintf(fallbackAnswerFormat, s.Subject), Fallback: true}
	}

	a := Answer{Text: text}
	lang := language.English
	if g.languages != nil {
		lang = g.languages.LanguageTag(s.Language)
	}
	if url, ok := g.video.Search(ctx, video.Query(s.Grade, s.Subject, s.Topic, question), lang); ok {
		a.VideoURL = url
	}
	return a
}

func (g *Generator) complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	if g.ai == nil {
		return "", ai.ErrNoProviders
	}
	req.Model = g.model
	resp, err := g.ai.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", fmt.Errorf("empty completion from %s", resp.Model)
	}
	return text, nil
}
