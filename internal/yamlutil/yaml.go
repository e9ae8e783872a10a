// Package yamlutil wraps YAML parsing to isolate the external dependency.
// Config files and Markdown front matter both decode through here.
package yamlutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits YAML input to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

var (
	ErrNilData        = errors.New("yamlutil: nil or empty data")
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
)

const frontMatterDelim = "---"

func validateInput(data []byte, v any) error {
	if len(data) == 0 {
		return ErrNilData
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if v == nil {
		return ErrNilDestination
	}
	return nil
}

// Unmarshal ignores fields the destination does not declare.
func Unmarshal(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

func Marshal(v any) ([]byte, error) {
	result, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	return result, nil
}

// UnmarshalStrict rejects unknown fields in the input.
func UnmarshalStrict(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// SplitFrontMatter separates a leading "---" delimited YAML block from a
// Markdown document. ok is false when content has no closed front matter,
// in which case body is content unchanged.
func SplitFrontMatter(content string) (front, body string, ok bool) {
	rest, found := strings.CutPrefix(content, frontMatterDelim+"\n")
	if !found {
		rest, found = strings.CutPrefix(content, frontMatterDelim+"\r\n")
	}
	if !found {
		return "", content, false
	}

	// The closing delimiter may be the very first line (empty block).
	if after, ok := cutDelimLine(rest); ok {
		return "", after, true
	}
	for i := 0; i < len(rest); i++ {
		if rest[i] != '\n' {
			continue
		}
		if after, ok := cutDelimLine(rest[i+1:]); ok {
			return strings.TrimRight(rest[:i], "\r"), after, true
		}
	}
	return "", content, false
}

// cutDelimLine returns what follows s's first line when that line is "---".
func cutDelimLine(s string) (string, bool) {
	line, after, _ := strings.Cut(s, "\n")
	if strings.TrimRight(line, "\r ") != frontMatterDelim {
		return "", false
	}
	return after, true
}
