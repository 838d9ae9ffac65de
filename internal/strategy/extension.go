package strategy

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"curator/internal/logging"
	"curator/internal/plan"
	"curator/internal/services"
)

// Category groups file extensions under one destination folder name.
type Category struct {
	Name       string   `yaml:"name"`
	Extensions []string `yaml:"extensions"`
}

// fallbackCategory collects files whose extension matches no category.
const fallbackCategory = "Other"

// DefaultCategories returns the built-in extension taxonomy.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Documents", Extensions: []string{".doc", ".docx", ".txt", ".rtf", ".odt", ".pages"}},
		{Name: "PDFs", Extensions: []string{".pdf"}},
		{Name: "Spreadsheets", Extensions: []string{".xls", ".xlsx", ".ods", ".csv", ".numbers"}},
		{Name: "Presentations", Extensions: []string{".ppt", ".pptx", ".key"}},
		{Name: "Images", Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".tif", ".webp", ".heic", ".heif"}},
		{Name: "Vector Graphics", Extensions: []string{".svg", ".eps", ".ai", ".cdr"}},
		{Name: "Audio", Extensions: []string{".mp3", ".wav", ".aac", ".m4a", ".flac", ".ogg", ".wma", ".aif", ".aiff", ".aax"}},
		{Name: "MIDI", Extensions: []string{".mid", ".midi"}},
		{Name: "Video", Extensions: []string{".mp4", ".mov", ".avi", ".mkv", ".wmv", ".flv", ".webm", ".m4v"}},
		{Name: "Archives", Extensions: []string{".zip", ".rar", ".7z", ".tar", ".gz", ".bz2"}},
		{Name: "Code", Extensions: []string{".py", ".js", ".html", ".css", ".java", ".cpp", ".c", ".h", ".php", ".rb", ".go", ".rs", ".swift", ".kt"}},
		{Name: "Data", Extensions: []string{".json", ".xml", ".yaml", ".yml", ".toml", ".sql", ".db", ".sqlite"}},
		{Name: "Fonts", Extensions: []string{".ttf", ".otf", ".woff", ".woff2"}},
		{Name: "Database", Extensions: []string{".fmp12", ".mdb", ".accdb"}},
	}
}

// Extension organizes files into category folders derived from their
// extension: invoices.pdf lands in PDFs, photo.jpg in Images. Files already
// inside their category folder stay put, so repeated runs are no-ops.
type Extension struct {
	logger     *slog.Logger
	categories []Category
	byExt      map[string]string
}

// ExtensionOption customizes the Extension strategy.
type ExtensionOption func(*Extension)

// WithCategories replaces the built-in taxonomy.
func WithCategories(categories []Category) ExtensionOption {
	return func(e *Extension) {
		if len(categories) > 0 {
			e.categories = categories
		}
	}
}

// NewExtension constructs the extension strategy.
func NewExtension(logger *slog.Logger, opts ...ExtensionOption) *Extension {
	e := &Extension{
		logger:     logging.NewComponentLogger(logger, "strategy"),
		categories: DefaultCategories(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.byExt = make(map[string]string)
	for _, category := range e.categories {
		for _, ext := range category.Extensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			// First category listed for an extension wins.
			if _, taken := e.byExt[ext]; !taken {
				e.byExt[ext] = category.Name
			}
		}
	}
	return e
}

// LoadCategoriesFile reads a category taxonomy from a YAML file.
func LoadCategoriesFile(path string) ([]Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}
	var doc struct {
		Categories []Category `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse categories file: %w", err)
	}
	if len(doc.Categories) == 0 {
		return nil, fmt.Errorf("categories file %s defines no categories", path)
	}
	return doc.Categories, nil
}

// Name implements Strategy.
func (e *Extension) Name() string { return NameExtension }

// Categorize maps one filename to its category folder.
func (e *Extension) Categorize(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if category, ok := e.byExt[ext]; ok {
		return category
	}
	return fallbackCategory
}

// Propose walks root and proposes one move per file into its category folder
// directly under root.
func (e *Extension) Propose(ctx context.Context, root string) ([]plan.Operation, error) {
	var ops []plan.Operation
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
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
			return nil
		}

		category := e.Categorize(name)
		destination := filepath.Join(root, category, name)
		// A file anywhere under its category folder is already organized.
		if rel, relErr := filepath.Rel(root, path); relErr == nil {
			top, _, nested := strings.Cut(rel, string(filepath.Separator))
			if nested && top == category {
				return nil
			}
		}

		ops = append(ops, plan.NewFileMove(path, destination))
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "strategy", "extension scan", root, err)
	}

	e.logger.Info("extension proposals ready",
		logging.String("root", root),
		logging.Int("proposals", len(ops)))
	return ops, nil
}
