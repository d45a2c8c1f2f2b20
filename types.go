package imagemanager

import "time"

// NameBuilder computes the destination file name for the idx-th file in a
// rename batch. idx is 1-based and counts only files that survived the
// temporary pass. Returning an empty string skips the file.
type NameBuilder func(idx int, tmpPath, originalPath string) string

type ImageInfo struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// RenameResult tallies the outcome of a two-phase rename batch. Replacement
// is the new path of the designated current file, or empty if it was not
// supplied or not renamed.
type RenameResult struct {
	Renamed     int    `json:"renamed"`
	Skipped     int    `json:"skipped"`
	Failed      int    `json:"failed"`
	Replacement string `json:"replacement,omitempty"`
}

type PlanEntry struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Conflict    bool   `json:"conflict,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

type RenamePlan struct {
	Entries []PlanEntry `json:"entries"`
}

// Conflicts returns the entries that would be skipped by an actual run.
func (p *RenamePlan) Conflicts() []PlanEntry {
	var out []PlanEntry
	for _, e := range p.Entries {
		if e.Conflict {
			out = append(out, e)
		}
	}
	return out
}

type TrashResult struct {
	Trashed []string `json:"trashed"`
	Failed  []string `json:"failed,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

type ValidationResult struct {
	IsValid     bool     `json:"is_valid"`
	Issues      []string `json:"issues,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

type ListOptions struct {
	Recursive bool     `json:"recursive"`
	Sort      SortMode `json:"sort"`
	Ascending bool     `json:"ascending"`
}
