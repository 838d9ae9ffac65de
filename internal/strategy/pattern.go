package strategy

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"curator/internal/logging"
	"curator/internal/plan"
	"curator/internal/services"
)

// Rule matches file or folder names and routes them to a destination folder
// relative to the root. Type selects the match mode: exact, glob (default),
// or regex (case-insensitive).
type Rule struct {
	Pattern     string `yaml:"pattern"`
	Type        string `yaml:"type"`
	Destination string `yaml:"destination"`
	Recursive   bool   `yaml:"recursive"`

	regex *regexp.Regexp
}

// RuleSet is the parsed form of a rules file.
type RuleSet struct {
	FileRules   []Rule `yaml:"file_rules"`
	FolderRules []Rule `yaml:"folder_rules"`
}

// LoadRulesFile reads and validates a YAML rules file. Regex rules are
// compiled here so a bad pattern fails the run instead of silently matching
// nothing.
func LoadRulesFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var rules RuleSet
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	if len(rules.FileRules) == 0 && len(rules.FolderRules) == 0 {
		return nil, fmt.Errorf("rules file %s defines no rules", path)
	}
	if err := rules.compile(); err != nil {
		return nil, err
	}
	return &rules, nil
}

func (r *RuleSet) compile() error {
	for _, group := range [][]Rule{r.FileRules, r.FolderRules} {
		for i := range group {
			rule := &group[i]
			if strings.TrimSpace(rule.Pattern) == "" {
				return fmt.Errorf("rule %d: pattern required", i)
			}
			if strings.TrimSpace(rule.Destination) == "" {
				return fmt.Errorf("rule %q: destination required", rule.Pattern)
			}
			switch rule.Type {
			case "", "glob", "exact":
			case "regex":
				compiled, err := regexp.Compile("(?i)" + rule.Pattern)
				if err != nil {
					return fmt.Errorf("rule %q: %w", rule.Pattern, err)
				}
				rule.regex = compiled
			default:
				return fmt.Errorf("rule %q: unknown type %q", rule.Pattern, rule.Type)
			}
		}
	}
	return nil
}

func (r *Rule) matches(name string) bool {
	switch r.Type {
	case "exact":
		return name == r.Pattern
	case "regex":
		return r.regex != nil && r.regex.MatchString(name)
	default:
		matched, err := filepath.Match(r.Pattern, name)
		return err == nil && matched
	}
}

// firstMatch returns the first rule whose pattern matches name.
func firstMatch(name string, rules []Rule) *Rule {
	for i := range rules {
		if rules[i].matches(name) {
			return &rules[i]
		}
	}
	return nil
}

// Pattern organizes files and folders by configurable matching rules, first
// match wins. Folder rules run before file rules so files inside a matched
// folder travel with it instead of being routed separately.
type Pattern struct {
	logger *slog.Logger
	rules  *RuleSet
}

// NewPattern constructs the pattern strategy from a parsed rule set.
func NewPattern(logger *slog.Logger, rules *RuleSet) *Pattern {
	return &Pattern{
		logger: logging.NewComponentLogger(logger, "strategy"),
		rules:  rules,
	}
}

// Name implements Strategy.
func (p *Pattern) Name() string { return NamePattern }

// Propose applies folder rules to the root's immediate subdirectories, then
// file rules to files.
func (p *Pattern) Propose(ctx context.Context, root string) ([]plan.Operation, error) {
	if p.rules == nil {
		return nil, services.Wrap(services.ErrConfiguration, "strategy", "pattern", "no rules loaded", nil)
	}

	var ops []plan.Operation
	movedFolders := make(map[string]struct{})

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "strategy", "pattern scan", root, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		rule := firstMatch(entry.Name(), p.rules.FolderRules)
		if rule == nil {
			continue
		}
		source := filepath.Join(root, entry.Name())
		destination := filepath.Join(root, filepath.FromSlash(rule.Destination), entry.Name())
		if source == destination {
			continue
		}
		ops = append(ops, plan.NewFolderMove(source, destination))
		movedFolders[source] = struct{}{}
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			// Contents of a folder that is itself moving stay with it.
			if _, moving := movedFolders[path]; moving {
				return filepath.SkipDir
			}
			return nil
		}

		rule := firstMatch(name, p.rules.FileRules)
		if rule == nil {
			return nil
		}
		if !rule.Recursive && filepath.Dir(path) != root {
			return nil
		}
		destination := filepath.Join(root, filepath.FromSlash(rule.Destination), name)
		if path == destination {
			return nil
		}
		ops = append(ops, plan.NewFileMove(path, destination))
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "strategy", "pattern scan", root, err)
	}

	p.logger.Info("pattern proposals ready",
		logging.String("root", root),
		logging.Int("proposals", len(ops)))
	return ops, nil
}
