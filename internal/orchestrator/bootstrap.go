package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"go.uber.org/zap"

	"github.com/clintrovert/pmctl/internal/projectkey"
	"github.com/clintrovert/pmctl/pkg/types"
)

// BootstrapResult is the outcome for one directory
type BootstrapResult struct {
	Dir     string `json:"dir"`
	Key     string `json:"key"`
	Name    string `json:"name"`
	Remote  string `json:"remote,omitempty"`
	Created bool   `json:"created"`
	Error   string `json:"error,omitempty"`
}

// BootstrapProjects creates one project per non-hidden sub-directory of root,
// deriving the key and name from the directory name. Git repositories get
// their origin URL in the project description. Failures are recorded per
// directory and do not stop the rest. With dryRun nothing is created.
func (o *Orchestrator) BootstrapProjects(ctx context.Context, root string, dryRun bool) ([]BootstrapResult, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", root, err)
	}

	var results []BootstrapResult
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := BootstrapResult{
			Dir:  entry.Name(),
			Key:  projectkey.Generate(entry.Name()),
			Name: projectkey.DisplayName(entry.Name()),
		}

		remote, err := originURL(filepath.Join(root, entry.Name()))
		if err != nil {
			o.logger.Warn("failed to inspect repository", zap.String("dir", entry.Name()), zap.Error(err))
		}
		result.Remote = remote

		if dryRun {
			results = append(results, result)
			continue
		}

		description := "Project " + result.Name
		if remote != "" {
			description += " (source: " + remote + ")"
		}

		_, err = o.tracker.CreateProject(ctx, types.ProjectInput{
			Key:         result.Key,
			Name:        result.Name,
			Description: description,
			AssignToMe:  true,
		})
		if err != nil {
			o.logger.Error("failed to create project for directory",
				zap.String("dir", entry.Name()),
				zap.String("project", result.Key),
				zap.Error(err),
			)
			result.Error = err.Error()
		} else {
			result.Created = true
		}
		results = append(results, result)
	}
	return results, nil
}

// originURL returns the first URL of the origin remote, or "" when dir is not
// a git repository or has no origin.
func originURL(dir string) (string, error) {
	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to open repository: %w", err)
	}

	remote, err := repo.Remote("origin")
	if errors.Is(err, git.ErrRemoteNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read origin remote: %w", err)
	}

	if urls := remote.Config().URLs; len(urls) > 0 {
		return urls[0], nil
	}
	return "", nil
}
