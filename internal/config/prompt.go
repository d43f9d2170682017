package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSystemPrompt is used when no prompt file is configured.
const DefaultSystemPrompt = `You are a helpful support agent for a small e-commerce store.
Answer clearly and concisely.`

// DefaultFAQ is the store FAQ the agent treats as ground truth.
var DefaultFAQ = []string{
	"Shipping: Ships across India in 2-5 business days. International shipping to USA takes 7-14 business days. Tracking provided.",
	"Returns: 7-day return window from delivery for unused items in original packaging. Refunds processed in 5-7 business days after inspection.",
	"Support hours: Mon-Sat, 10:00-19:00 IST.",
}

const promptClosingLine = "If you don't know, ask a brief clarifying question."

type promptDocument struct {
	SystemPrompt string   `yaml:"system_prompt"`
	FAQ          []string `yaml:"faq"`
}

// LoadSystemPrompt returns the system prompt, reading the YAML prompt file when a path is given.
func LoadSystemPrompt(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return composeSystemPrompt(DefaultSystemPrompt, DefaultFAQ), nil
	}

	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return "", fmt.Errorf("read prompt file %q: %w", cleanPath, err)
	}

	var doc promptDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parse prompt file %q: %w", cleanPath, err)
	}

	base := strings.TrimSpace(doc.SystemPrompt)
	if base == "" {
		return "", errors.New("prompt file has an empty system_prompt")
	}
	return composeSystemPrompt(base, doc.FAQ), nil
}

func composeSystemPrompt(base string, faq []string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(base))

	lines := make([]string, 0, len(faq))
	for _, line := range faq {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > 0 {
		b.WriteString("\n\nFAQ (ground truth):\n")
		for _, line := range lines {
			b.WriteString("- ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString(promptClosingLine)
	}
	return b.String()
}
