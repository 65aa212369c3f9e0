// Package seed imports bookmarks from a YAML file at startup, so a fresh
// deployment comes up with a searchable index.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/codealamode/imiimi/internal/bookmarks"
	"github.com/codealamode/imiimi/internal/domain"
	"github.com/codealamode/imiimi/internal/logger"
)

// Entry is one bookmark to import.
type Entry struct {
	URL    string `yaml:"url"`
	User   string `yaml:"user"`
	Public *bool  `yaml:"public"` // default true
}

// File is the root structure of the seed file.
type File struct {
	Bookmarks []Entry `yaml:"bookmarks"`
}

// Loader reads a seed file and saves its bookmarks through the pipeline.
type Loader struct {
	filePath string
	service  *bookmarks.Service
	logger   logger.Logger
}

func NewLoader(filePath string, service *bookmarks.Service, log logger.Logger) *Loader {
	return &Loader{filePath: filePath, service: service, logger: log}
}

// Load parses the seed file and imports every entry. Entries already
// referenced by their user are skipped, so reimporting is safe. A bad entry
// is logged and skipped, a bad file is an error.
func (l *Loader) Load(ctx context.Context) error {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse seed yaml: %w", err)
	}

	imported := 0
	for _, entry := range file.Bookmarks {
		if entry.URL == "" || entry.User == "" {
			l.logger.Warn("seed entry missing url or user, skipping")
			continue
		}
		public := true
		if entry.Public != nil {
			public = *entry.Public
		}

		_, err := l.service.CreateBookmark(ctx, entry.User, entry.URL, public)
		switch {
		case errors.Is(err, domain.ErrDuplicateReference):
			continue
		case err != nil:
			l.logger.Warn("failed to import seed bookmark",
				logger.String("url", entry.URL),
				logger.String("user", entry.User),
				logger.Error(err))
		default:
			imported++
		}
	}

	l.logger.Info("seed import done",
		logger.Int("imported", imported),
		logger.Int("total", len(file.Bookmarks)))
	return nil
}
