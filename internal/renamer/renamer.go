// Package renamer computes target paths from source paths.
//
// A Rule is either a regex substitution over the file-name component with
// an optional post-transform applied to the replacement text, or an ASCII
// transliteration of the whole file-name component. Rules are pure: they
// never touch the filesystem, and parent directory components are always
// preserved.
package renamer

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// Transform is an optional text transform applied to replacement text.
type Transform string

// Supported transforms.
const (
	TransformNone  Transform = ""
	TransformUpper Transform = "upper"
	TransformLower Transform = "lower"
	TransformASCII Transform = "ascii"
)

// ParseTransform validates a transform name from the command line.
func ParseTransform(name string) (Transform, error) {
	switch Transform(name) {
	case TransformNone, TransformUpper, TransformLower, TransformASCII:
		return Transform(name), nil
	default:
		return TransformNone, fmt.Errorf("unknown transform %q (expected upper, lower or ascii)", name)
	}
}

// Rule describes how a source path maps to its target path.
type Rule struct {
	// pattern is nil for the ASCII rule.
	pattern     *regexp.Regexp
	replacement string
	limit       int
	transform   Transform
}

// NewRegex creates a regex substitution rule. The replacement supports
// numbered (${1}) and named (${name}) backreferences. limit bounds the
// number of non-overlapping replacements; 0 means unlimited.
func NewRegex(pattern, replacement string, limit int, transform Transform) (*Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid expression: %w", err)
	}
	if limit < 0 {
		return nil, fmt.Errorf("replace limit must not be negative, got %d", limit)
	}
	return &Rule{
		pattern:     re,
		replacement: replacement,
		limit:       limit,
		transform:   transform,
	}, nil
}

// NewASCII creates a rule that transliterates the file name to ASCII.
func NewASCII() *Rule {
	return &Rule{}
}

// Apply computes the target path for source. Only the file-name component
// is rewritten. The result may equal source; callers drop identity pairs.
func (r *Rule) Apply(source string) (string, error) {
	dir := filepath.Dir(source)
	name := filepath.Base(source)

	var target string
	if r.pattern != nil {
		target = r.substitute(name)
	} else {
		target = transliterate(name)
	}

	if target == "" {
		return "", fmt.Errorf("renaming %q produces an empty file name", source)
	}
	return filepath.Join(dir, target), nil
}

// substitute applies the pattern to name, replacing at most limit
// non-overlapping matches left to right. The transform is applied to each
// expanded replacement, leaving unmatched portions of the name untouched.
func (r *Rule) substitute(name string) string {
	limit := r.limit
	if limit == 0 {
		limit = -1
	}
	matches := r.pattern.FindAllStringSubmatchIndex(name, limit)
	if matches == nil {
		return name
	}

	var b strings.Builder
	last := 0
	for _, match := range matches {
		b.WriteString(name[last:match[0]])
		expanded := string(r.pattern.ExpandString(nil, r.replacement, name, match))
		b.WriteString(applyTransform(expanded, r.transform))
		last = match[1]
	}
	b.WriteString(name[last:])
	return b.String()
}

// applyTransform rewrites replacement text according to the transform.
func applyTransform(text string, transform Transform) string {
	switch transform {
	case TransformUpper:
		return strings.ToUpper(text)
	case TransformLower:
		return strings.ToLower(text)
	case TransformASCII:
		return transliterate(text)
	default:
		return text
	}
}

// transliterate maps text to its ASCII form. Characters whose
// transliteration would introduce a path separator become underscores so
// the result stays a single path component.
func transliterate(text string) string {
	return strings.ReplaceAll(unidecode.Unidecode(text), "/", "_")
}
