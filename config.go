package imagemanager

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultFilePermissions = 0644

// SortMode selects the ordering of listed images.
type SortMode string

const (
	SortByDate SortMode = "date"
	SortByName SortMode = "name"
)

type Config struct {
	Extensions       []string `yaml:"extensions"`
	ExcludeDirs      []string `yaml:"exclude_dirs"`
	Recursive        bool     `yaml:"recursive"`
	SortMode         SortMode `yaml:"sort_mode"`
	SortAscending    bool     `yaml:"sort_ascending"`
	KeywordMaxLength int      `yaml:"keyword_max_length"`
	TempPrefix       string   `yaml:"temp_prefix"`
	SessionPath      string   `yaml:"session_path"`
}

func DefaultConfig() *Config {
	return &Config{
		Extensions:       []string{".png", ".jpg", ".jpeg", ".bmp", ".gif", ".webp", ".tif", ".tiff"},
		ExcludeDirs:      []string{".git"},
		Recursive:        true,
		SortMode:         SortByDate,
		SortAscending:    false,
		KeywordMaxLength: 40,
		TempPrefix:       "__imtmp__",
	}
}

func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// NormalizeExtension lowercases ext and ensures a leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ext
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
