package imagemanager

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Renamer renames batches of files without the destination names colliding
// with each other or with the originals. Every file is first moved to a
// unique temporary name; destination names are computed and applied only
// after the whole batch has been parked under temp names.
//
// No error escapes a batch: per-file failures degrade to a skip or fail
// tally with a best-effort move back to the original name. The optional log
// sink records failures that the tallies flatten away.
type Renamer struct {
	config *Config
	logger *slog.Logger
}

func NewRenamer(config *Config, logger *slog.Logger) *Renamer {
	return &Renamer{
		config: config,
		logger: logger,
	}
}

type tempEntry struct {
	tmp      string
	original string
}

// TwoPhaseRename renames paths in order using build to compute each
// destination name. currentPath optionally designates a file whose new
// location is reported back through RenameResult.Replacement.
//
// Files that cannot be moved to a temp name are left under their original
// name and excluded from the batch without being tallied.
func (r *Renamer) TwoPhaseRename(paths []string, build NameBuilder, currentPath string) RenameResult {
	resolvedCurrent := ""
	if currentPath != "" {
		resolvedCurrent = canonicalPath(currentPath)
	}

	var temps []tempEntry
	for _, path := range paths {
		tmp := filepath.Join(filepath.Dir(path), r.tempName(filepath.Base(path)))
		if err := os.Rename(path, tmp); err != nil {
			r.log("temp rename failed", "path", path, "error", err)
			continue
		}
		temps = append(temps, tempEntry{tmp: tmp, original: path})
	}

	var result RenameResult
	for i, entry := range temps {
		idx := i + 1

		newName := build(idx, entry.tmp, entry.original)
		if newName == "" {
			r.restoreOrFail(entry, &result)
			continue
		}

		dest := filepath.Join(filepath.Dir(entry.tmp), newName)
		if _, err := os.Stat(dest); err == nil {
			r.log("destination exists", "path", entry.original, "dest", dest)
			r.restoreOrFail(entry, &result)
			continue
		}

		if err := os.Rename(entry.tmp, dest); err != nil {
			result.Failed++
			r.log("rename failed", "path", entry.original, "dest", dest, "error", err)
			if restoreErr := os.Rename(entry.tmp, entry.original); restoreErr != nil {
				r.log("restore failed, file left under temp name", "temp", entry.tmp, "error", restoreErr)
			}
			continue
		}

		result.Renamed++
		if resolvedCurrent != "" && canonicalPath(entry.original) == resolvedCurrent {
			result.Replacement = dest
		}
	}

	return result
}

// restoreOrFail counts a skip and moves the file back to its original name.
// If the move back fails the skip escalates to a fail and the file stays
// under its temp name.
func (r *Renamer) restoreOrFail(entry tempEntry, result *RenameResult) {
	if err := os.Rename(entry.tmp, entry.original); err != nil {
		result.Failed++
		r.log("restore failed, file left under temp name", "temp", entry.tmp, "error", err)
		return
	}
	result.Skipped++
}

// tempName builds a collision-proof temporary file name from a fresh random
// token and the original base name.
func (r *Renamer) tempName(base string) string {
	token := uuid.New()
	return fmt.Sprintf("%s%s__%s", r.config.TempPrefix, hex.EncodeToString(token[:]), base)
}

func (r *Renamer) log(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}

// canonicalPath resolves path for equality comparison. The parent directory
// is resolved through symlinks so the result is stable whether or not the
// file itself still exists.
func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	dir, base := filepath.Split(abs)
	if resolvedDir, err := filepath.EvalSymlinks(filepath.Clean(dir)); err == nil {
		return filepath.Join(resolvedDir, base)
	}
	return abs
}

// KeywordBuilder returns a NameBuilder producing "<keyword>_<idx>" names
// that keep each file's original extension.
func KeywordBuilder(keyword string) NameBuilder {
	return func(idx int, tmpPath, originalPath string) string {
		return fmt.Sprintf("%s_%d%s", keyword, idx, filepath.Ext(originalPath))
	}
}
