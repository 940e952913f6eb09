// Package langdetect guesses the language of fenced code blocks that carry no
// info string, so the renderer can pick a highlighter or a sub-renderer.
package langdetect

import (
	"bytes"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// Languages with special handling in the render pipeline.
const (
	Text    = "text"
	Mermaid = "mermaid"
	Math    = "math"
)

// classifierCandidates limits the enry classifier to languages chroma highlights well.
//
//nolint:gochecknoglobals // read-only candidate list
var classifierCandidates = []string{
	"Go", "Python", "Shell", "JavaScript", "TypeScript",
	"Ruby", "Rust", "Java", "C", "C++", "SQL", "JSON",
	"YAML", "HTML", "CSS", "Dockerfile",
}

// mermaidHeaders are the diagram declarations mermaid accepts on its first line.
//
//nolint:gochecknoglobals // read-only keyword list
var mermaidHeaders = []string{
	"graph ", "flowchart ", "sequenceDiagram", "classDiagram", "stateDiagram",
	"erDiagram", "gantt", "pie", "journey", "gitGraph", "mindmap", "timeline",
}

// Detect returns a lowercase language name for code content, or Text when
// nothing is confident enough.
func Detect(content []byte) string {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return Text
	}

	if lang, safe := enry.GetLanguageByShebang(content); safe {
		return normalize(lang)
	}

	if lang := detectSubLanguage(trimmed); lang != "" {
		return lang
	}

	if bytes.HasPrefix(trimmed, []byte("package ")) {
		return "go"
	}

	if lang, safe := enry.GetLanguageByClassifier(content, classifierCandidates); safe && lang != "" {
		return normalize(lang)
	}

	return Text
}

// IsSubLanguage reports whether lang is rendered by a sub-renderer rather than highlighted.
func IsSubLanguage(lang string) bool {
	switch strings.ToLower(lang) {
	case Mermaid, Math, "latex", "katex":
		return true
	default:
		return false
	}
}

// detectSubLanguage recognizes mermaid diagrams and display math.
func detectSubLanguage(trimmed []byte) string {
	firstLine, _, _ := bytes.Cut(trimmed, []byte("\n"))
	first := string(bytes.TrimSpace(firstLine))
	for _, header := range mermaidHeaders {
		if strings.HasPrefix(first, header) {
			return Mermaid
		}
	}

	if bytes.HasPrefix(trimmed, []byte(`\begin{`)) ||
		(bytes.HasPrefix(trimmed, []byte("$$")) && bytes.HasSuffix(trimmed, []byte("$$"))) {
		return Math
	}

	return ""
}

// normalize converts go-enry language names to fence tags.
func normalize(lang string) string {
	if lang == "Shell" {
		return "bash"
	}
	return strings.ToLower(lang)
}
