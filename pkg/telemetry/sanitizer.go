package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// PIILevel controls how much chat content reaches logs and spans.
type PIILevel string

const (
	// PIILevelNone redacts message bodies entirely.
	PIILevelNone PIILevel = "none"
	// PIILevelHashed keeps the text but replaces detected PII with salted hashes.
	PIILevelHashed PIILevel = "hashed"
	// PIILevelFull logs text as-is. Local development only.
	PIILevelFull PIILevel = "full"
)

// ParsePIILevel falls back to hashed for unknown values.
func ParsePIILevel(raw string) PIILevel {
	switch PIILevel(strings.ToLower(strings.TrimSpace(raw))) {
	case PIILevelNone:
		return PIILevelNone
	case PIILevelFull:
		return PIILevelFull
	default:
		return PIILevelHashed
	}
}

type piiRule struct {
	pattern *regexp.Regexp
	tag     string
	hashed  bool
}

// Sanitizer scrubs customer chat text before it is logged.
type Sanitizer struct {
	level PIILevel
	salt  string
	rules []piiRule
}

// NewSanitizer builds a sanitizer; salt keeps hashes stable per deployment.
func NewSanitizer(level PIILevel, salt string) *Sanitizer {
	return &Sanitizer{
		level: level,
		salt:  salt,
		// cards and SSNs run before phones so their digit groups are not half-matched
		rules: []piiRule{
			{regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`), "EMAIL", true},
			{regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`), "CC", false},
			{regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "SSN", false},
			{regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`), "PHONE", true},
			{regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`), "IP", true},
			{regexp.MustCompile(`\b(?:[A-Fa-f0-9]{1,4}:){7}[A-Fa-f0-9]{1,4}\b`), "IP", true},
		},
	}
}

// Level reports the configured level.
func (s *Sanitizer) Level() PIILevel {
	return s.level
}

// Text sanitizes a message or reply body.
func (s *Sanitizer) Text(input string) string {
	switch s.level {
	case PIILevelNone:
		return "[REDACTED]"
	case PIILevelFull:
		return input
	default:
		return s.scrub(input)
	}
}

// ClientIP sanitizes a caller address for rate limit logs.
func (s *Sanitizer) ClientIP(ip string) string {
	if ip == "" || s.level == PIILevelFull {
		return ip
	}
	if s.level == PIILevelNone {
		return "[REDACTED]"
	}
	return s.hash(ip)
}

func (s *Sanitizer) scrub(input string) string {
	result := input
	for _, rule := range s.rules {
		rule := rule
		result = rule.pattern.ReplaceAllStringFunc(result, func(match string) string {
			if !rule.hashed {
				return "[" + rule.tag + ":REDACTED]"
			}
			return "[" + rule.tag + ":" + s.hash(match) + "]"
		})
	}
	return result
}

func (s *Sanitizer) hash(data string) string {
	sum := sha256.Sum256([]byte(data + s.salt))
	return hex.EncodeToString(sum[:])[:8]
}
