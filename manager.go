package imagemanager

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

type Manager interface {
	ListImages(ctx context.Context, root string, opts ListOptions) ([]ImageInfo, error)
	RenameBatch(paths []string, build NameBuilder, currentPath string) RenameResult
	KeywordRename(ctx context.Context, root, keyword, currentPath string) (*RenameResult, error)
	PlanKeywordRename(ctx context.Context, root, keyword string) (*RenamePlan, error)
	MoveToTrash(ctx context.Context, paths []string) *TrashResult
	ValidateKeyword(keyword string, existing []string) *ValidationResult
}

type DefaultManager struct {
	scanner   Scanner
	validator Validator
	renamer   *Renamer
	config    *Config
	logger    *slog.Logger
}

func NewDefaultManager(config *Config) (*DefaultManager, error) {
	validator := NewDefaultValidator(config)
	if err := validator.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &DefaultManager{
		scanner:   NewFolderScanner(config),
		validator: validator,
		renamer:   NewRenamer(config, nil),
		config:    config,
	}, nil
}

// SetLogSink installs a structured log sink for failures that the result
// tallies flatten away. A nil sink restores the default silent behavior.
func (m *DefaultManager) SetLogSink(logger *slog.Logger) {
	m.logger = logger
	m.renamer = NewRenamer(m.config, logger)
}

func (m *DefaultManager) ListImages(ctx context.Context, root string, opts ListOptions) ([]ImageInfo, error) {
	if err := m.validator.ValidatePath(root); err != nil {
		return nil, fmt.Errorf("invalid root path: %w", err)
	}

	return m.scanner.ListImages(ctx, root, opts)
}

// RenameBatch runs the two-phase renamer over paths in the given order.
func (m *DefaultManager) RenameBatch(paths []string, build NameBuilder, currentPath string) RenameResult {
	return m.renamer.TwoPhaseRename(paths, build, currentPath)
}

// KeywordRename renames every image under root to "<keyword>_<n>" in the
// configured listing order, preserving extensions. currentPath optionally
// names the file whose new location should be reported back.
func (m *DefaultManager) KeywordRename(ctx context.Context, root, keyword, currentPath string) (*RenameResult, error) {
	images, err := m.listForRename(ctx, root, keyword)
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(images))
	for i, img := range images {
		paths[i] = img.Path
	}

	result := m.renamer.TwoPhaseRename(paths, KeywordBuilder(keyword), currentPath)
	return &result, nil
}

// PlanKeywordRename computes the destinations a KeywordRename would produce
// without touching any file. An entry is a conflict when its destination
// already exists and is not itself part of the batch.
func (m *DefaultManager) PlanKeywordRename(ctx context.Context, root, keyword string) (*RenamePlan, error) {
	images, err := m.listForRename(ctx, root, keyword)
	if err != nil {
		return nil, err
	}

	sources := make(map[string]bool, len(images))
	for _, img := range images {
		sources[filepath.Clean(img.Path)] = true
	}

	build := KeywordBuilder(keyword)
	plan := &RenamePlan{Entries: make([]PlanEntry, 0, len(images))}
	for i, img := range images {
		dest := filepath.Join(filepath.Dir(img.Path), build(i+1, img.Path, img.Path))
		entry := PlanEntry{Source: img.Path, Destination: dest}
		if _, err := os.Stat(dest); err == nil && !sources[filepath.Clean(dest)] {
			entry.Conflict = true
			entry.Reason = "destination already exists"
		}
		plan.Entries = append(plan.Entries, entry)
	}

	return plan, nil
}

func (m *DefaultManager) listForRename(ctx context.Context, root, keyword string) ([]ImageInfo, error) {
	if err := m.validator.ValidatePath(root); err != nil {
		return nil, fmt.Errorf("invalid root path: %w", err)
	}

	if result := m.validator.ValidateKeyword(keyword, nil); !result.IsValid {
		return nil, fmt.Errorf("invalid keyword: %s", result.Issues[0])
	}

	return m.scanner.ListImages(ctx, root, ListOptions{
		Recursive: m.config.Recursive,
		Sort:      m.config.SortMode,
		Ascending: m.config.SortAscending,
	})
}

// MoveToTrash relocates paths to the OS trash one by one, accumulating
// failures instead of aborting the batch.
func (m *DefaultManager) MoveToTrash(ctx context.Context, paths []string) *TrashResult {
	result := &TrashResult{
		Trashed: []string{},
		Failed:  []string{},
		Errors:  []string{},
	}

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}

		if err := trashFile(ctx, path); err != nil {
			result.Failed = append(result.Failed, path)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
			if m.logger != nil {
				m.logger.Warn("trash failed", "path", path, "error", err)
			}
			continue
		}

		result.Trashed = append(result.Trashed, path)
	}

	return result
}

func (m *DefaultManager) ValidateKeyword(keyword string, existing []string) *ValidationResult {
	return m.validator.ValidateKeyword(keyword, existing)
}
