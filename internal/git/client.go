// Package git provides a minimal Git client for fetching files from remote
// repositories.
package git

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// Client defines the interface for Git operations
type Client interface {
	// Clone clones a repository with the given configuration
	Clone(ctx context.Context, config *CloneConfig) (*RepositoryInfo, error)

	// GetFileContent retrieves the content of a file from the repository
	GetFileContent(repoInfo *RepositoryInfo, path string) ([]byte, error)

	// Cleanup releases the in-memory repository state
	Cleanup(ctx context.Context, repoInfo *RepositoryInfo) error
}

// defaultClient implements Client using go-git
type defaultClient struct{}

// NewDefaultClient creates a new default Git client
func NewDefaultClient() Client {
	return &defaultClient{}
}

// Clone clones a repository with the given configuration
func (c *defaultClient) Clone(ctx context.Context, config *CloneConfig) (*RepositoryInfo, error) {
	cloneOptions := &git.CloneOptions{
		URL:   config.URL,
		Depth: 1,
	}

	if config.Auth != nil && config.Auth.Username != "" {
		cloneOptions.Auth = &githttp.BasicAuth{
			Username: config.Auth.Username,
			Password: config.Auth.Password,
		}
		slog.Debug("Using Git HTTP Basic authentication", "username", config.Auth.Username)
	}

	if config.Branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(config.Branch)
		cloneOptions.SingleBranch = true
	}

	// The repository never touches disk: go-git wants separate filesystems
	// for the storer and the checked out files, so use two memfs instances.
	worktreeFs := memfs.New()
	storerFs := memfs.New()
	storerCache := cache.NewObjectLRUDefault()
	storer := filesystem.NewStorage(storerFs, storerCache)

	repo, err := git.CloneContext(ctx, storer, worktreeFs, cloneOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to clone repository: %w", err)
	}

	repoInfo := &RepositoryInfo{
		Repository:       repo,
		RemoteURL:        config.URL,
		storerFilesystem: storerFs,
		objectCache:      storerCache,
	}

	if ref, err := repo.Head(); err == nil && ref.Name().IsBranch() {
		repoInfo.Branch = ref.Name().Short()
	}

	return repoInfo, nil
}

// GetFileContent retrieves the content of a file from the repository
func (*defaultClient) GetFileContent(repoInfo *RepositoryInfo, path string) ([]byte, error) {
	if repoInfo == nil || repoInfo.Repository == nil {
		return nil, fmt.Errorf("repository is nil")
	}

	ref, err := repoInfo.Repository.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD reference: %w", err)
	}

	commit, err := repoInfo.Repository.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit object: %w", err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}

	file, err := tree.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", path, err)
	}

	content, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to read file contents: %w", err)
	}

	return []byte(content), nil
}

// Cleanup releases the in-memory repository state
func (*defaultClient) Cleanup(_ context.Context, repoInfo *RepositoryInfo) error {
	if repoInfo == nil || repoInfo.Repository == nil {
		return fmt.Errorf("repository is nil")
	}

	if repoInfo.objectCache != nil {
		repoInfo.objectCache.Clear()
	}

	worktree, err := repoInfo.Repository.Worktree()
	if err == nil && worktree.Filesystem != nil {
		_ = util.RemoveAll(worktree.Filesystem, "/")
	}

	if repoInfo.storerFilesystem != nil {
		_ = util.RemoveAll(repoInfo.storerFilesystem, "/")
	}

	repoInfo.objectCache = nil
	repoInfo.storerFilesystem = nil
	repoInfo.Repository = nil

	return nil
}
