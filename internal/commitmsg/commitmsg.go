// Package commitmsg produces the commit message for each counter update,
// either date-stamped or drafted by an LLM.
package commitmsg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnexpectedOutput is returned when the LLM reply carries no bullet to
// extract a message from. Deliberately fatal: once LLM mode is selected
// there is no fallback to the date-stamped message.
var ErrUnexpectedOutput = errors.New("commitmsg: unexpected generated text")

// Generator produces one commit message.
type Generator interface {
	Message(ctx context.Context) (string, error)
}

// DateGenerator produces "Update number: YYYY-MM-DD" messages.
type DateGenerator struct {
	// Now defaults to time.Now.
	Now func() time.Time
}

var _ Generator = DateGenerator{}

// Message implements Generator.
func (g DateGenerator) Message(_ context.Context) (string, error) {
	now := g.Now
	if now == nil {
		now = time.Now
	}
	return "Update number: " + now().Format("2006-01-02"), nil
}

// prompt is the fixed instruction given to the LLM.
const prompt = "Generate a Git commit message following the Conventional Commits standard.\nKeep it short."

// LLMGenerator asks an OpenAI-compatible endpoint for a Conventional
// Commits style message and extracts the text after the last "- " bullet.
type LLMGenerator struct {
	generate func(ctx context.Context, prompt string) (string, error)
}

var _ Generator = (*LLMGenerator)(nil)

// NewLLMGenerator wraps a generation function (usually a closure over
// llm.Client.Generate with the configured sampling parameters).
func NewLLMGenerator(generate func(ctx context.Context, prompt string) (string, error)) *LLMGenerator {
	return &LLMGenerator{generate: generate}
}

// Message implements Generator.
func (g *LLMGenerator) Message(ctx context.Context) (string, error) {
	text, err := g.generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("commitmsg: generating message: %w", err)
	}
	return ExtractBullet(text)
}

// ExtractBullet returns the trimmed text after the last "- " bullet marker.
// Text without a bullet is a hard error.
func ExtractBullet(text string) (string, error) {
	idx := strings.LastIndex(text, "- ")
	if idx < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnexpectedOutput, text)
	}
	return strings.TrimSpace(text[idx+len("- "):]), nil
}
