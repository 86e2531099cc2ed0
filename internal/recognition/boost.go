package recognition

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultBoostPhrases is the domain vocabulary attached to every recognizer.
var DefaultBoostPhrases = []string{
	"Azure AI Foundry",
	"Azure Speech",
	"CSI Interfusion",
	"custom endpoint",
	"semantic segmentation",
	"speech-to-text",
	"text-to-speech",
	"SSML",
	"neural voice",
	"phrase list",
	"Speech SDK",
	"Japan East",
}

type boostFile struct {
	Phrases []string `yaml:"phrases"`
}

// LoadBoostPhrases returns the default vocabulary merged with the phrases in
// the YAML file at path. An empty path returns the defaults.
func LoadBoostPhrases(path string) ([]string, error) {
	if path == "" {
		return MergePhrases(DefaultBoostPhrases), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read boost phrases '%s': %w", path, err)
	}

	var file boostFile

	err = yaml.Unmarshal(data, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse boost phrases '%s': %w", path, err)
	}

	return MergePhrases(DefaultBoostPhrases, file.Phrases), nil
}

// MergePhrases concatenates lists, trimming and dropping blanks and
// case-insensitive duplicates.
func MergePhrases(lists ...[]string) []string {
	seen := make(map[string]struct{})

	var merged []string

	for _, list := range lists {
		for _, phrase := range list {
			trimmed := strings.TrimSpace(phrase)
			if trimmed == "" {
				continue
			}

			key := strings.ToLower(trimmed)
			if _, dup := seen[key]; dup {
				continue
			}

			seen[key] = struct{}{}
			merged = append(merged, trimmed)
		}
	}

	return merged
}
