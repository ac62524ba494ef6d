// Package config loads the YAML configuration set that drives every job:
// sources, matching rules, detector rules, and the policy gate.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/johnson-liu-code/InquisitorNet/internal/detector"
	"github.com/johnson-liu-code/InquisitorNet/internal/gate"
	"github.com/johnson-liu-code/InquisitorNet/internal/match"
)

// Source modes.
const (
	ModeFixtures = "fixtures"
	ModeAPI      = "api"
)

// ConfigError marks a missing or unparseable required input. Callers map it
// to a distinct exit code.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Sources selects where records come from and which forums to read.
type Sources struct {
	Mode         string   `yaml:"mode"`
	FixturesPath string   `yaml:"fixtures_path"`
	Allow        []string `yaml:"allow"`
	Avoid        []string `yaml:"avoid"`
}

// Matching holds the ingest keyword rules and discard predicates.
type Matching struct {
	Keywords struct {
		Include []string `yaml:"include"`
		Exclude []string `yaml:"exclude"`
	} `yaml:"keywords"`
	MatchPolicy string            `yaml:"match_policy"`
	DiscardIf   []match.Predicate `yaml:"discard_if"`
}

// Detector holds the detection rule specs and score thresholds.
type Detector struct {
	Rules      []detector.RuleSpec `yaml:"rules"`
	Thresholds detector.Thresholds `yaml:"thresholds"`
}

// Gate holds the policy gate checks and decision policy.
type Gate struct {
	Checks         []gate.CheckSpec    `yaml:"checks"`
	DecisionPolicy gate.DecisionPolicy `yaml:"decision_policy"`
}

// Settings is the full configuration set, one file per concern.
type Settings struct {
	Sources  Sources
	Matching Matching
	Detector Detector
	Gate     Gate
}

// File names under the config directory.
const (
	sourcesFile  = "sources.yml"
	matchingFile = "matching.yml"
	detectorFile = "detector_rules.yml"
	gateFile     = "policy_gate.yml"
)

func loadYAML(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	return nil
}

// Load reads all four config files from dir. Any missing or unparseable
// file is a ConfigError; there are no optional files.
func Load(dir string) (*Settings, error) {
	var s Settings
	if err := loadYAML(filepath.Join(dir, sourcesFile), &s.Sources); err != nil {
		return nil, err
	}
	if err := loadYAML(filepath.Join(dir, matchingFile), &s.Matching); err != nil {
		return nil, err
	}
	if err := loadYAML(filepath.Join(dir, detectorFile), &s.Detector); err != nil {
		return nil, err
	}
	if err := loadYAML(filepath.Join(dir, gateFile), &s.Gate); err != nil {
		return nil, err
	}

	if s.Sources.Mode == "" {
		s.Sources.Mode = ModeFixtures
	}
	if s.Sources.Mode != ModeFixtures && s.Sources.Mode != ModeAPI {
		return nil, &ConfigError{
			Path: filepath.Join(dir, sourcesFile),
			Err:  fmt.Errorf("unknown mode %q", s.Sources.Mode),
		}
	}
	return &s, nil
}
