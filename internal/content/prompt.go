package content

import (
	"fmt"

	"github.com/p-n-ai/sciencegpt/internal/ai"
	"github.com/p-n-ai/sciencegpt/internal/curriculum"
)

// Sampling parameters per content kind.
const (
	suggestionTemperature = 0.7
	suggestionMaxTokens   = 500
	factTemperature       = 0.8
	factMaxTokens         = 300
	answerTemperature     = 0.6
	answerMaxTokens       = 1000
)

const (
	suggestionSystemPrompt = "You are an educational assistant specialized in creating engaging questions for Indian students following NCERT curriculum."
	factSystemPrompt       = "You are an educational assistant specialized in creating fascinating science facts for Indian students following NCERT curriculum."
)

// SuggestionPrompt asks for four questions matching the settings.
func SuggestionPrompt(s curriculum.Settings) []ai.Message {
	focus := ""
	if s.HasTopic() {
		focus = " focusing on " + s.Topic
	}
	user := fmt.Sprintf(`Generate 4 educational questions for Grade %d students studying %s%s.

Requirements:
- Questions must be in %s language
- Age-appropriate for Grade %d students
- Related to %s curriculum
- Encourage curiosity and learning
- Mix different question types (factual, conceptual, analytical)

Return only the questions, one per line, without numbering or bullets.`,
		s.Grade, s.Subject, focus, s.Language, s.Grade, s.Subject)

	return []ai.Message{
		{Role: ai.RoleSystem, Content: suggestionSystemPrompt},
		{Role: ai.RoleUser, Content: user},
	}
}

// FactPrompt asks for one labelled fact. The display language is ignored.
func FactPrompt(s curriculum.Settings) []ai.Message {
	related := ""
	if s.HasTopic() {
		related = " related to " + s.Topic
	}
	user := fmt.Sprintf(`Generate an interesting and educational science fact for Grade %d students studying %s%s.

Requirements:
- Must be in %s language (always)
- Age-appropriate for Grade %d students
- Related to %s curriculum
- Fascinating and memorable
- Include a brief explanation
- Should inspire curiosity

Format the response as:
Fact: [The interesting fact]
Explanation: [Brief 2-3 sentence explanation]`,
		s.Grade, s.Subject, related, FactLanguage, s.Grade, s.Subject)

	return []ai.Message{
		{Role: ai.RoleSystem, Content: factSystemPrompt},
		{Role: ai.RoleUser, Content: user},
	}
}

// AnswerPrompt asks for an answer to a student's question.
func AnswerPrompt(s curriculum.Settings, question string) []ai.Message {
	focus := ""
	if s.HasTopic() {
		focus = " with focus on " + s.Topic
	}
	system := fmt.Sprintf("You are a helpful science teacher for Grade %d students. Always respond in %s language and keep explanations age-appropriate.",
		s.Grade, s.Language)
	user := fmt.Sprintf(`You are an expert science teacher for Grade %d Indian students following NCERT curriculum.
Student Question: %s
Context:
- Grade: %d
- Subject: %s
- Language: %s
- Topic: %s
Please provide a comprehensive, age-appropriate answer in %s language that:
1. Directly answers the student's question
2. Is appropriate for Grade %d level understanding
3. Relates to %s%s
4. Encourages further learning
5. Uses simple language and examples
Keep the response educational, engaging, and encouraging.`,
		s.Grade, question, s.Grade, s.Subject, s.Language, s.Topic, s.Language, s.Grade, s.Subject, focus)

	return []ai.Message{
		{Role: ai.RoleSystem, Content: system},
		{Role: ai.RoleUser, Content: user},
	}
}
