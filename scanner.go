package imagemanager

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// errScanStopped signals that the consumer stopped the iteration early.
var errScanStopped = errors.New("scan stopped")

type Scanner interface {
	ScanFolder(ctx context.Context, root string, recursive bool) iter.Seq2[ImageInfo, error]
	ListImages(ctx context.Context, root string, opts ListOptions) ([]ImageInfo, error)
}

// FolderScanner walks a folder yielding files whose extension matches the
// configured image extensions. Unreadable entries are skipped rather than
// failing the whole traversal.
type FolderScanner struct {
	config  *Config
	allowed map[string]bool
}

func NewFolderScanner(config *Config) *FolderScanner {
	allowed := make(map[string]bool, len(config.Extensions))
	for _, ext := range config.Extensions {
		if normalized := NormalizeExtension(ext); normalized != "" {
			allowed[normalized] = true
		}
	}
	return &FolderScanner{
		config:  config,
		allowed: allowed,
	}
}

func (s *FolderScanner) ScanFolder(ctx context.Context, root string, recursive bool) iter.Seq2[ImageInfo, error] {
	return func(yield func(ImageInfo, error) bool) {
		info, err := os.Stat(root)
		if err != nil {
			yield(ImageInfo{}, err)
			return
		}
		if !info.IsDir() {
			yield(ImageInfo{}, fmt.Errorf("not a directory: %s", root))
			return
		}

		if err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			if err != nil {
				// Unreadable entry, keep walking.
				return nil
			}

			if d.IsDir() {
				if path == root {
					return nil
				}
				for _, exclude := range s.config.ExcludeDirs {
					if strings.EqualFold(d.Name(), exclude) {
						return filepath.SkipDir
					}
				}
				if !recursive {
					return filepath.SkipDir
				}
				return nil
			}

			if !s.allowed[strings.ToLower(filepath.Ext(path))] {
				return nil
			}

			fi, err := d.Info()
			if err != nil {
				return nil
			}

			if !yield(ImageInfo{Path: path, Size: fi.Size(), ModTime: fi.ModTime()}, nil) {
				return errScanStopped
			}
			return nil
		}); err != nil && err != errScanStopped {
			yield(ImageInfo{}, err)
		}
	}
}

func (s *FolderScanner) ListImages(ctx context.Context, root string, opts ListOptions) ([]ImageInfo, error) {
	var images []ImageInfo
	for info, err := range s.ScanFolder(ctx, root, opts.Recursive) {
		if err != nil {
			return nil, err
		}
		images = append(images, info)
	}

	SortImages(images, opts.Sort, opts.Ascending)
	return images, nil
}

// SortImages orders images in place. Date sorting breaks ties by path so
// the ordering stays deterministic across runs.
func SortImages(images []ImageInfo, mode SortMode, ascending bool) {
	less := func(i, j int) bool {
		a, b := images[i], images[j]
		if mode == SortByDate && !a.ModTime.Equal(b.ModTime) {
			return a.ModTime.Before(b.ModTime)
		}
		return a.Path < b.Path
	}

	sort.SliceStable(images, func(i, j int) bool {
		if ascending {
			return less(i, j)
		}
		return less(j, i)
	})
}
