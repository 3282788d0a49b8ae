package citation

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Keyword maps a product or domain term found in a snippet to a display
// title and a documentation path used when a URL has to be guessed.
type Keyword struct {
	Term  string `yaml:"term"`
	Title string `yaml:"title"`
	Path  string `yaml:"path"`

	re *regexp.Regexp
}

// DefaultKeywords is the built-in table, checked in order.
func DefaultKeywords() []Keyword {
	return compileKeywords([]Keyword{
		{Term: "knowledge base", Title: "Knowledge Bases Guide", Path: "knowledge-bases"},
		{Term: "bedrock", Title: "Amazon Bedrock User Guide", Path: "bedrock"},
		{Term: "lambda", Title: "AWS Lambda Developer Guide", Path: "lambda"},
		{Term: "s3", Title: "Amazon S3 User Guide", Path: "s3"},
		{Term: "api", Title: "API Reference", Path: "api"},
		{Term: "pricing", Title: "Pricing", Path: "pricing"},
		{Term: "security", Title: "Security Guide", Path: "security"},
		{Term: "getting started", Title: "Getting Started", Path: "getting-started"},
	})
}

type keywordFile struct {
	Keywords []Keyword `yaml:"keywords"`
}

// LoadKeywords reads a YAML keyword table:
//
//	keywords:
//	  - term: billing
//	    title: Billing Guide
//	    path: billing
func LoadKeywords(path string) ([]Keyword, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keyword table: %w", err)
	}
	var f keywordFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse keyword table %s: %w", path, err)
	}
	for i, k := range f.Keywords {
		if strings.TrimSpace(k.Term) == "" || strings.TrimSpace(k.Title) == "" {
			return nil, fmt.Errorf("keyword table %s: entry %d needs term and title", path, i+1)
		}
	}
	return compileKeywords(f.Keywords), nil
}

func compileKeywords(ks []Keyword) []Keyword {
	out := make([]Keyword, len(ks))
	for i, k := range ks {
		k.re = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(strings.TrimSpace(k.Term)) + `\b`)
		if k.Path == "" {
			k.Path = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k.Term)), " ", "-")
		}
		out[i] = k
	}
	return out
}

func matchKeyword(ks []Keyword, text string) (Keyword, bool) {
	if text == "" {
		return Keyword{}, false
	}
	for _, k := range ks {
		if k.re != nil && k.re.MatchString(text) {
			return k, true
		}
	}
	return Keyword{}, false
}
