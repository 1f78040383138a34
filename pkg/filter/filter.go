package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter selects list entries by regular expression on a string key
type Filter struct {
	Include []*regexp.Regexp
	Exclude []*regexp.Regexp
	Latest  int
}

// NewFilter creates a new filter from string patterns
func NewFilter(include, exclude []string, latest int) (*Filter, error) {
	f := &Filter{
		Latest: latest,
	}

	// Compile include patterns
	for _, pattern := range include {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern %q: %w", pattern, err)
		}
		f.Include = append(f.Include, re)
	}

	// Compile exclude patterns
	for _, pattern := range exclude {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		f.Exclude = append(f.Exclude, re)
	}

	return f, nil
}

// ParseList splits a comma separated query value into patterns, dropping blanks
func ParseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Match checks if a value matches the filter rules
func (f *Filter) Match(value string) bool {
	if f == nil {
		return true
	}

	// Check exclude patterns first
	for _, re := range f.Exclude {
		if re.MatchString(value) {
			return false
		}
	}

	// If no include patterns, match all (after exclusions)
	if len(f.Include) == 0 {
		return true
	}

	// Check include patterns
	for _, re := range f.Include {
		if re.MatchString(value) {
			return true
		}
	}

	return false
}

// Apply returns the matching items in their original order, keeping at most
// Latest of them when Latest is positive.
func Apply[T any](f *Filter, items []T, key func(T) string) []T {
	matched := make([]T, 0, len(items))

	for _, item := range items {
		if f.Match(key(item)) {
			matched = append(matched, item)
		}
	}

	// Apply latest limit
	if f != nil && f.Latest > 0 && len(matched) > f.Latest {
		matched = matched[:f.Latest]
	}

	return matched
}
