// Package assistant orchestrates the multi-stage LLM pipeline behind the
// chat room's addressable assistant: context summarization, answer
// generation, response sanitization, and an independent judge call used
// by the test harness.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/devendrajoshi/smartchat/internal/chat"
	"github.com/devendrajoshi/smartchat/internal/config"
	"github.com/devendrajoshi/smartchat/internal/llm"
)

// noSummaryMarker is the degraded-context placeholder used when the
// summarization stage fails; the pipeline still proceeds to answer.
const noSummaryMarker = "no summary available"

// emptyHistoryMarker stands in for the conversation context when there is
// no usable history.
const emptyHistoryMarker = "[No recent chat history]"

// emptyReplyFallback is returned when the model produces no content at
// all; an addressed question must always get a non-empty reply.
const emptyReplyFallback = "I wasn't able to compose a response. Please try rephrasing your question."

// Status is the outcome of a judge evaluation.
type Status string

const (
	StatusPass  Status = "PASS"
	StatusFail  Status = "FAIL"
	StatusError Status = "ERROR"
)

// Evaluation is the judge's verdict on an assistant response. Reason is
// always set for non-PASS outcomes.
type Evaluation struct {
	Status Status
	Reason string
}

// Generator is the single-call surface of the language-model client the
// pipeline depends on.
type Generator interface {
	Generate(ctx context.Context, req llm.GenerateRequest) (string, error)
}

// Options configures a Pipeline.
type Options struct {
	Username           string // assistant's display name, also its message author name
	Answer             config.RoleParams
	Summarizer         config.RoleParams
	Judge              config.RoleParams
	ContextHistorySize int
}

// Pipeline produces the assistant's replies. It holds no claim on hub
// state; callers snapshot history before invoking it and broadcast its
// result afterwards.
type Pipeline struct {
	gen     Generator
	prompts *Prompts
	opts    Options
}

// New creates a Pipeline from its collaborators.
func New(gen Generator, prompts *Prompts, opts Options) *Pipeline {
	if opts.ContextHistorySize <= 0 {
		opts.ContextHistorySize = 10
	}
	return &Pipeline{gen: gen, prompts: prompts, opts: opts}
}

// Username returns the assistant's configured display name.
func (p *Pipeline) Username() string { return p.opts.Username }

// Answer runs the full pipeline for one addressed question and always
// returns a user-visible reply: the sanitized generation on success, a
// fixed apology on answer-stage failure. It never returns an empty
// string and never propagates an error to the caller.
func (p *Pipeline) Answer(ctx context.Context, history []chat.Message, question string) string {
	summary := p.reduceContext(ctx, history, question)

	prompt, err := p.prompts.Answer(PromptData{
		AssistantName: p.opts.Username,
		Context:       summary,
		Question:      question,
	})
	if err != nil {
		slog.Error("Failed to render answer prompt", "error", err)
		return p.apology()
	}

	raw, err := p.gen.Generate(ctx, llm.GenerateRequest{
		Model:       p.opts.Answer.Model,
		Prompt:      prompt,
		Temperature: p.opts.Answer.Temperature,
		MaxTokens:   p.opts.Answer.MaxTokens,
		Timeout:     p.opts.Answer.Timeout,
	})
	if err != nil {
		slog.Error("Answer generation failed", "model", p.opts.Answer.Model, "error", err)
		return p.apology()
	}

	reply := p.sanitize(raw)
	if reply == "" {
		return emptyReplyFallback
	}
	return reply
}

// reduceContext renders the relevant slice of history and asks the
// summarizer role to compress it. Failure degrades to a marker string so
// the answer stage always has something to work with.
func (p *Pipeline) reduceContext(ctx context.Context, history []chat.Message, question string) string {
	rendered := p.renderHistory(history)
	if rendered == emptyHistoryMarker {
		return rendered
	}

	prompt, err := p.prompts.Summarize(PromptData{
		AssistantName: p.opts.Username,
		Context:       rendered,
		Question:      question,
	})
	if err != nil {
		slog.Error("Failed to render summarize prompt", "error", err)
		return noSummaryMarker
	}

	summary, err := p.gen.Generate(ctx, llm.GenerateRequest{
		Model:       p.opts.Summarizer.Model,
		Prompt:      prompt,
		Temperature: p.opts.Summarizer.Temperature,
		MaxTokens:   p.opts.Summarizer.MaxTokens,
		Timeout:     p.opts.Summarizer.Timeout,
	})
	if err != nil {
		slog.Warn("Context summarization failed, continuing without summary", "error", err)
		return noSummaryMarker
	}
	if summary == "" {
		return noSummaryMarker
	}
	return summary
}

// renderHistory formats the trailing context window as "username: text"
// lines. Messages authored by the assistant itself are excluded; this
// filter is the only self-reference guard in the system.
func (p *Pipeline) renderHistory(history []chat.Message) string {
	start := 0
	if len(history) > p.opts.ContextHistorySize {
		start = len(history) - p.opts.ContextHistorySize
	}

	var lines []string
	for _, msg := range history[start:] {
		if msg.Username == p.opts.Username {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Username, msg.Text))
	}
	if len(lines) == 0 {
		return emptyHistoryMarker
	}
	return strings.Join(lines, "\n")
}

// sanitize strips a leading self-referential "<name>:" prefix and a
// leading boilerplate lead-in from the generated text. Best-effort string
// surgery; it never rejects output.
func (p *Pipeline) sanitize(text string) string {
	text = strings.TrimSpace(text)

	selfPrefix := p.opts.Username + ":"
	if len(text) >= len(selfPrefix) && strings.EqualFold(text[:len(selfPrefix)], selfPrefix) {
		text = strings.TrimSpace(text[len(selfPrefix):])
	}

	const leadIn = "your concise answer:"
	if len(text) >= len(leadIn) && strings.EqualFold(text[:len(leadIn)], leadIn) {
		text = strings.TrimSpace(text[len(leadIn):])
	}

	return text
}

// apology is the terminal user-visible reply for an answer-stage failure.
func (p *Pipeline) apology() string {
	return fmt.Sprintf(
		"I apologize, but I'm having trouble connecting to my knowledge base. Please ensure the backend is running and the model '%s' is available.",
		p.opts.Answer.Model,
	)
}

// Evaluate grades an assistant response against a described expected
// behavior via the judge role. It is used by the test harness only; its
// result is never broadcast.
func (p *Pipeline) Evaluate(ctx context.Context, expectedBehavior, actualResponse string) Evaluation {
	prompt, err := p.prompts.Judge(PromptData{
		ExpectedBehavior: expectedBehavior,
		ActualResponse:   actualResponse,
	})
	if err != nil {
		return Evaluation{Status: StatusError, Reason: err.Error()}
	}

	raw, err := p.gen.Generate(ctx, llm.GenerateRequest{
		Model:       p.opts.Judge.Model,
		Prompt:      prompt,
		Temperature: p.opts.Judge.Temperature,
		MaxTokens:   p.opts.Judge.MaxTokens,
		Timeout:     p.opts.Judge.Timeout,
	})
	if err != nil {
		return Evaluation{Status: StatusError, Reason: fmt.Sprintf("judge call failed: %v", err)}
	}

	return parseVerdict(raw)
}

// parseVerdict reads the first line of the judge output as the verdict
// token and the remainder as the reason.
func parseVerdict(raw string) Evaluation {
	verdict, reason, _ := strings.Cut(strings.TrimSpace(raw), "\n")
	verdict = strings.ToUpper(strings.TrimSpace(verdict))
	reason = strings.TrimSpace(reason)

	if strings.HasPrefix(verdict, string(StatusPass)) {
		return Evaluation{Status: StatusPass}
	}
	if reason == "" {
		reason = "judge returned FAIL without a reason"
	}
	return Evaluation{Status: StatusFail, Reason: reason}
}
