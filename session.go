package imagemanager

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Session holds the state carried between runs: the folder and image the
// user last had open, the preferred listing order, and the keyword list for
// batch renames. It is loaded once at startup and saved explicitly; nothing
// reads or writes it ambiently.
type Session struct {
	LastFolder    string   `json:"last_folder"`
	OpenPath      string   `json:"open_path"`
	SortMode      SortMode `json:"sort_mode"`
	SortAscending bool     `json:"sort_ascending"`
	LastKeyword   string   `json:"last_keyword"`
	BatchPath     string   `json:"batch_path"`
	Keywords      []string `json:"keywords"`
}

func DefaultSession() *Session {
	return &Session{
		SortMode:      SortByDate,
		SortAscending: false,
		Keywords:      []string{},
	}
}

// SessionPath returns the configured session file location, falling back to
// the user state directory.
func SessionPath(config *Config) (string, error) {
	if config != nil && config.SessionPath != "" {
		return config.SessionPath, nil
	}
	return xdg.StateFile("image-manager/session.json")
}

// LoadSession reads the session file at path. A missing file is seeded with
// defaults; malformed content and unknown keys are tolerated so a damaged
// session never blocks startup. The returned session is always usable.
func LoadSession(path string) *Session {
	session := DefaultSession()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			_ = SaveSession(path, session)
		}
		return session
	}

	if err := json.Unmarshal(data, session); err != nil {
		return DefaultSession()
	}
	if session.SortMode != SortByDate && session.SortMode != SortByName {
		session.SortMode = SortByDate
	}
	if session.Keywords == nil {
		session.Keywords = []string{}
	}
	return session
}

// SaveSession writes the session atomically: the JSON is staged in a temp
// file in the same directory and renamed into place.
func SaveSession(path string, session *Session) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "session-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	cleanup := true
	defer func() {
		if cleanup {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := tmp.Chmod(DefaultFilePermissions); err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	cleanup = false
	return nil
}

// AddKeyword appends keyword if it is not already present. Reports whether
// the list changed.
func (s *Session) AddKeyword(keyword string) bool {
	for _, existing := range s.Keywords {
		if existing == keyword {
			return false
		}
	}
	s.Keywords = append(s.Keywords, keyword)
	return true
}

// RemoveKeyword deletes keyword from the list. Reports whether it was found.
func (s *Session) RemoveKeyword(keyword string) bool {
	for i, existing := range s.Keywords {
		if existing == keyword {
			s.Keywords = append(s.Keywords[:i], s.Keywords[i+1:]...)
			return true
		}
	}
	return false
}
