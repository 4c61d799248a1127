package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultLabel is the label applied to matching messages.
	DefaultLabel = "rejections"

	// DefaultFolder is the Gmail search scope.
	DefaultFolder = "inbox"

	// MaxChunkSize is the largest id list a single batchModify call accepts.
	MaxChunkSize = 1000

	// DefaultChunkSize is the chunk size used when none is configured.
	DefaultChunkSize = MaxChunkSize
)

// ErrInvalidRules is returned for rules that cannot produce a usable query.
var ErrInvalidRules = errors.New("invalid rules")

// DefaultPhrases are the rejection heuristics searched for when no rules
// file overrides them.
var DefaultPhrases = []string{
	"we regret to inform you",
	"we are unable to move forward",
	"we have decided not to move forward",
	"you were not selected",
	"Thank you for your interest in",
	"Thank you for applying to",
}

// Rules configures one labeling run.
type Rules struct {
	Label     string   `yaml:"label"`
	Folder    string   `yaml:"folder"`
	ChunkSize int      `yaml:"chunk_size"`
	Phrases   []string `yaml:"phrases"`
}

// Default returns the built-in rules.
func Default() Rules {
	return Rules{
		Label:     DefaultLabel,
		Folder:    DefaultFolder,
		ChunkSize: DefaultChunkSize,
		Phrases:   append([]string(nil), DefaultPhrases...),
	}
}

// Load reads rules from a YAML file. An empty path returns Default().
func Load(path string) (Rules, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}

	rules, err := Parse(data)
	if err != nil {
		return Rules{}, fmt.Errorf("rules file %s: %w", path, err)
	}
	return rules, nil
}

// Parse decodes YAML rules and fills omitted fields with defaults.
// Unknown keys are rejected so typos do not silently fall back.
func Parse(data []byte) (Rules, error) {
	var rules Rules

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rules); err != nil && !errors.Is(err, io.EOF) {
		return Rules{}, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}

	rules.applyDefaults()
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

func (r *Rules) applyDefaults() {
	if r.Label == "" {
		r.Label = DefaultLabel
	}
	if r.Folder == "" {
		r.Folder = DefaultFolder
	}
	if r.ChunkSize == 0 {
		r.ChunkSize = DefaultChunkSize
	}
	if r.Phrases == nil {
		r.Phrases = append([]string(nil), DefaultPhrases...)
	}
}

// Validate checks that the rules can drive a run.
func (r Rules) Validate() error {
	if strings.TrimSpace(r.Label) == "" {
		return fmt.Errorf("%w: label must not be empty", ErrInvalidRules)
	}
	if strings.TrimSpace(r.Folder) == "" {
		return fmt.Errorf("%w: folder must not be empty", ErrInvalidRules)
	}
	if r.ChunkSize < 1 || r.ChunkSize > MaxChunkSize {
		return fmt.Errorf("%w: chunk_size must be between 1 and %d, got %d", ErrInvalidRules, MaxChunkSize, r.ChunkSize)
	}
	if len(r.cleanPhrases()) == 0 {
		return fmt.Errorf("%w: at least one phrase is required", ErrInvalidRules)
	}
	return nil
}

// Query builds the Gmail search expression: in:<folder> ("p1" OR "p2" ...).
func (r Rules) Query() (string, error) {
	phrases := r.cleanPhrases()
	if len(phrases) == 0 {
		return "", fmt.Errorf("%w: at least one phrase is required", ErrInvalidRules)
	}

	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = `"` + p + `"`
	}
	return fmt.Sprintf("in:%s (%s)", strings.TrimSpace(r.Folder), strings.Join(quoted, " OR ")), nil
}

// cleanPhrases strips double quotes, which would break the quoted terms,
// and drops phrases left blank.
func (r Rules) cleanPhrases() []string {
	out := make([]string, 0, len(r.Phrases))
	for _, p := range r.Phrases {
		p = strings.TrimSpace(strings.ReplaceAll(p, `"`, ""))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
