package assistant

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/afero"
)

// PromptData carries the named substitution points available to the
// prompt templates. Each template uses the subset it needs.
type PromptData struct {
	AssistantName    string
	Context          string
	Question         string
	ExpectedBehavior string
	ActualResponse   string
}

const defaultSummarizePrompt = `You are a summarizer for a group chat. A participant has asked the assistant {{.AssistantName}} a question, and the full recent conversation is below. Produce a short summary of the conversation containing only the facts relevant to answering the question. Do not answer the question yourself.

Recent Chat History:
{{.Context}}

Question being asked: "{{.Question}}"

Relevant summary:`

const defaultAnswerPrompt = `You are {{.AssistantName}}, a helpful and concise AI assistant in a chat.
Your goal is to directly and accurately answer the user's *current, explicit question*.

**Important Instructions for {{.AssistantName}}:**
- Always respond from the perspective of '{{.AssistantName}}'.
- Your answer should be concise and to the point. Aim for 1-3 sentences for direct questions, or a brief summary if requested.
- If the user's question is short or refers to a previous statement (e.g., "is that true?", "what about this?"), carefully review the 'Recent Chat History' to understand what "that" or "this" refers to.
- Do NOT introduce yourself, ask for clarification unless absolutely necessary, or refer to past interactions unless directly asked about them in the *current* question.
- Your response should come directly from {{.AssistantName}}, without any introductory phrases like "{{.AssistantName}} says:" or repeating the user's question.

Recent Chat History (for context; crucial for understanding referential questions):
{{.Context}}

User's explicit question to {{.AssistantName}}: "{{.Question}}"

Your concise answer:`

const defaultJudgePrompt = `You are an impartial judge evaluating an AI assistant's chat response.

Expected behavior:
{{.ExpectedBehavior}}

Actual response:
{{.ActualResponse}}

Reply with a single word on the first line: PASS if the actual response satisfies the expected behavior, or FAIL if it does not. If you reply FAIL, explain why on the following lines.`

// promptFiles maps each template to its override filename inside the
// configured prompts directory.
var promptFiles = map[string]string{
	"summarize": "summarize.tmpl",
	"answer":    "answer.tmpl",
	"judge":     "judge.tmpl",
}

// Prompts assembles the literal prompt strings for the three pipeline
// stages. The templates are data, not code: compiled-in defaults, each
// replaceable by a file in an optional prompts directory.
type Prompts struct {
	summarize *template.Template
	answer    *template.Template
	judge     *template.Template
}

// DefaultPrompts returns the compiled-in prompt set.
func DefaultPrompts() *Prompts {
	p, err := LoadPrompts(afero.NewMemMapFs(), "")
	if err != nil {
		// The defaults are compile-time constants; failing to parse them
		// is a programming error.
		panic(err)
	}
	return p
}

// LoadPrompts builds the prompt set, overriding any default whose file
// exists under dir on the given filesystem. An empty dir loads only the
// defaults.
func LoadPrompts(fsys afero.Fs, dir string) (*Prompts, error) {
	sources := map[string]string{
		"summarize": defaultSummarizePrompt,
		"answer":    defaultAnswerPrompt,
		"judge":     defaultJudgePrompt,
	}

	if dir != "" {
		for name, file := range promptFiles {
			path := filepath.Join(dir, file)
			ok, err := afero.Exists(fsys, path)
			if err != nil {
				return nil, fmt.Errorf("check prompt override %s: %w", path, err)
			}
			if !ok {
				continue
			}
			raw, err := afero.ReadFile(fsys, path)
			if err != nil {
				return nil, fmt.Errorf("read prompt override %s: %w", path, err)
			}
			sources[name] = string(raw)
		}
	}

	parsed := make(map[string]*template.Template, len(sources))
	for name, src := range sources {
		tmpl, err := template.New(name).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parse %s prompt: %w", name, err)
		}
		parsed[name] = tmpl
	}

	return &Prompts{
		summarize: parsed["summarize"],
		answer:    parsed["answer"],
		judge:     parsed["judge"],
	}, nil
}

// Summarize renders the context-reduction prompt.
func (p *Prompts) Summarize(data PromptData) (string, error) {
	return render(p.summarize, data)
}

// Answer renders the answer-generation prompt.
func (p *Prompts) Answer(data PromptData) (string, error) {
	return render(p.answer, data)
}

// Judge renders the evaluation prompt.
func (p *Prompts) Judge(data PromptData) (string, error) {
	return render(p.judge, data)
}

func render(tmpl *template.Template, data PromptData) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", tmpl.Name(), err)
	}
	return sb.String(), nil
}
