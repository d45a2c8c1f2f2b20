package imagemanager

import (
	"fmt"
	"path/filepath"
	"strings"
)

type Validator interface {
	ValidateKeyword(keyword string, existing []string) *ValidationResult
	ValidatePath(path string) error
	ValidateConfig(config *Config) error
}

type DefaultValidator struct {
	config *Config
}

func NewDefaultValidator(config *Config) *DefaultValidator {
	return &DefaultValidator{
		config: config,
	}
}

// ValidateKeyword checks a rename keyword: non-empty, bounded length, not
// the reserved "none" placeholder, safe to embed in a file name, and not
// already in existing.
func (v *DefaultValidator) ValidateKeyword(keyword string, existing []string) *ValidationResult {
	result := &ValidationResult{
		IsValid:     true,
		Issues:      []string{},
		Suggestions: []string{},
	}

	cleaned := strings.TrimSpace(keyword)

	if cleaned == "" {
		result.IsValid = false
		result.Issues = append(result.Issues, "Keyword cannot be empty")
		return result
	}

	if len(cleaned) > v.config.KeywordMaxLength {
		result.IsValid = false
		result.Issues = append(result.Issues, fmt.Sprintf("Keyword must be at most %d characters long", v.config.KeywordMaxLength))
	}

	if strings.EqualFold(cleaned, "none") {
		result.IsValid = false
		result.Issues = append(result.Issues, `Keyword "none" is reserved`)
	}

	if strings.ContainsAny(cleaned, `/\:*?"<>|`) {
		result.IsValid = false
		result.Issues = append(result.Issues, "Keyword contains characters not allowed in file names")
		suggested := strings.Map(func(r rune) rune {
			if strings.ContainsRune(`/\:*?"<>|`, r) {
				return '-'
			}
			return r
		}, cleaned)
		result.Suggestions = append(result.Suggestions, fmt.Sprintf("Suggested: %s", suggested))
	}

	for _, known := range existing {
		if known == cleaned {
			result.IsValid = false
			result.Issues = append(result.Issues, "Keyword already exists")
			break
		}
	}

	return result
}

func (v *DefaultValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute")
	}

	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains directory traversal")
	}

	return nil
}

func (v *DefaultValidator) ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if len(config.Extensions) == 0 {
		return fmt.Errorf("extensions cannot be empty")
	}

	if config.KeywordMaxLength < 1 {
		return fmt.Errorf("keyword_max_length must be at least 1")
	}

	if config.TempPrefix == "" {
		return fmt.Errorf("temp_prefix cannot be empty")
	}
	if strings.ContainsAny(config.TempPrefix, `/\`) {
		return fmt.Errorf("temp_prefix cannot contain path separators")
	}

	if config.SortMode != SortByDate && config.SortMode != SortByName {
		return fmt.Errorf("sort_mode must be %q or %q", SortByDate, SortByName)
	}

	return nil
}
