package llm

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

//go:embed prompts/summary.txt
var summaryTemplate string

//go:embed prompts/answer.txt
var answerTemplate string

//go:embed prompts/entities.txt
var entitiesTemplate string

//go:embed prompts/questions.txt
var questionsTemplate string

const (
	summarySystem = "You are an expert document analyst. Your task is to provide clear, concise, and accurate summaries of documents. Focus on the key points, main ideas, and important details. Be objective and maintain the original meaning."

	answerSystem = "You are a helpful document assistant. Answer questions based ONLY on the provided document context. If the answer cannot be found in the document, say so clearly. Always cite relevant parts of the document when possible."

	entitiesSystem = "You are an entity extraction expert. Extract key entities from documents accurately. Return entities in a structured format."

	questionsSystem = "You are an educational assistant. Generate insightful questions that help users understand and explore document content."
)

// SummaryRequest builds a completion request for summarizing text at roughly
// maxWords words.
func SummaryRequest(text string, maxWords int) Request {
	return Request{
		System:      summarySystem,
		Prompt:      fmt.Sprintf(summaryTemplate, maxWords, text),
		MaxTokens:   4096,
		Temperature: 0.3,
	}
}

// AnswerRequest builds a grounded question-answering request over text.
func AnswerRequest(text string, question string) Request {
	return Request{
		System:      answerSystem,
		Prompt:      fmt.Sprintf(answerTemplate, text, question),
		MaxTokens:   4096,
		Temperature: 0.2,
	}
}

// EntitiesRequest builds an entity-extraction request over text.
func EntitiesRequest(text string) Request {
	return Request{
		System:      entitiesSystem,
		Prompt:      fmt.Sprintf(entitiesTemplate, text),
		MaxTokens:   4096,
		Temperature: 0.1,
	}
}

// QuestionsRequest builds a request generating n suggested questions.
func QuestionsRequest(text string, n int) Request {
	return Request{
		System:      questionsSystem,
		Prompt:      fmt.Sprintf(questionsTemplate, n, text, n, n),
		MaxTokens:   4096,
		Temperature: 0.7,
	}
}

// Entities holds the structured extraction result. Raw carries the model
// output verbatim when it cannot be parsed as JSON.
type Entities struct {
	People         []string `json:"people,omitempty"`
	Organizations  []string `json:"organizations,omitempty"`
	Dates          []string `json:"dates,omitempty"`
	Locations      []string `json:"locations,omitempty"`
	MonetaryValues []string `json:"monetary_values,omitempty"`
	KeyTerms       []string `json:"key_terms,omitempty"`
	Raw            string   `json:"raw_response,omitempty"`
}

// ParseEntities extracts the first JSON object from a model response. When
// the response carries no parseable object the raw text is preserved.
func ParseEntities(response string) Entities {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start != -1 && end > start {
		var out Entities
		if err := json.Unmarshal([]byte(response[start:end+1]), &out); err == nil {
			return out
		}
	}
	return Entities{Raw: strings.TrimSpace(response)}
}

// ParseQuestions pulls numbered or bulleted question lines out of a model
// response, capped at max entries.
func ParseQuestions(response string, max int) []string {
	var questions []string
	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		first := rune(line[0])
		if !unicode.IsDigit(first) && !strings.HasPrefix(line, "-") {
			continue
		}
		q := strings.TrimSpace(strings.TrimLeft(line, "0123456789.-) "))
		if q != "" {
			questions = append(questions, q)
		}
		if max > 0 && len(questions) == max {
			break
		}
	}
	return questions
}

// AnswerConfidence grades a model answer from its wording. Explicit
// not-found phrasing reads as low, hedging words as medium, anything else
// as high.
func AnswerConfidence(answer string) string {
	lower := strings.ToLower(answer)
	switch {
	case strings.Contains(lower, "couldn't find") || strings.Contains(lower, "not found"):
		return "low"
	case strings.Contains(lower, "may") || strings.Contains(lower, "might"):
		return "medium"
	default:
		return "high"
	}
}
