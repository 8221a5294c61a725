package git

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
)

// CloneConfig holds the configuration for cloning a repository
type CloneConfig struct {
	// URL is the repository clone URL
	URL string

	// Branch is an optional branch to check out instead of the default
	Branch string

	// Auth is optional HTTP basic authentication
	Auth *AuthConfig
}

// AuthConfig holds HTTP basic authentication credentials
type AuthConfig struct {
	Username string
	Password string
}

// RepositoryInfo holds a cloned repository and its backing stores
type RepositoryInfo struct {
	// Repository is the cloned repository
	Repository *git.Repository

	// RemoteURL is the URL the repository was cloned from
	RemoteURL string

	// Branch is the checked out branch, when HEAD points at one
	Branch string

	storerFilesystem billy.Filesystem
	objectCache      cache.Object
}
