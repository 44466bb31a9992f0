// Package cloner retrieves a source repository tree for a reproduction Job
// (spec §4.4). It accepts file:// (test fixtures, copy-tree) and GitHub-only
// https/http/git URLs, always performing a shallow clone for the latter.
// Grounded on the teacher's preference for a thin os/exec wrapper around
// external tools (internal/tactile/docker.go shells out to `docker` the same
// way this shells out to `git`) rather than vendoring a Git implementation.
package cloner

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/scitorrent/arandu-repro/internal/logging"
	"github.com/scitorrent/arandu-repro/internal/reproerr"
)

var log = logging.Get("cloner")

// Clone retrieves repoURL into targetDir, removing any pre-existing tree
// first, and returns the absolute path to the cloned (or copied) repository.
func Clone(ctx context.Context, jobID, repoURL, targetDir string) (string, error) {
	step := logging.LogStep("cloner", jobID, "clone")
	var err error
	defer func() { step.End(err) }()

	if _, statErr := os.Stat(targetDir); statErr == nil {
		if err = os.RemoveAll(targetDir); err != nil {
			err = reproerr.RepoClone("removing stale clone target %s: %v", targetDir, err)
			return "", err
		}
	}

	u, parseErr := url.Parse(repoURL)
	if parseErr != nil {
		err = reproerr.RepoClone("invalid repo URL %q: %v", repoURL, parseErr)
		return "", err
	}

	switch u.Scheme {
	case "file":
		err = copyTree(u.Path, targetDir)
	case "https", "http", "git":
		if !isGitHubHost(u.Host) {
			err = reproerr.RepoClone("non-GitHub host not permitted: %s", u.Host)
			return "", err
		}
		err = shallowClone(ctx, repoURL, targetDir)
	default:
		err = reproerr.RepoClone("unsupported repo URL scheme %q", u.Scheme)
		return "", err
	}
	if err != nil {
		return "", err
	}

	abs, absErr := filepath.Abs(targetDir)
	if absErr != nil {
		err = reproerr.RepoClone("resolving absolute path for %s: %v", targetDir, absErr)
		return "", err
	}
	return abs, nil
}

// Cleanup idempotently removes a previously-cloned tree.
func Cleanup(path string) error {
	if path == "" {
		return nil
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("cleaning up clone at %s: %w", path, err)
	}
	return nil
}

func isGitHubHost(host string) bool {
	host = strings.ToLower(host)
	return host == "github.com" || host == "www.github.com"
}

func shallowClone(ctx context.Context, repoURL, targetDir string) error {
	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", repoURL, targetDir)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return reproerr.RepoClone("git clone %s failed: %v: %s", repoURL, err, strings.TrimSpace(string(out)))
	}
	log.Debug("cloned %s -> %s", repoURL, targetDir)
	return nil
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return reproerr.RepoClone("walking %s: %v", path, walkErr)
		}
		rel, relErr := filepath.Rel(src, path)
		if relErr != nil {
			return reproerr.RepoClone("computing relative path for %s: %v", path, relErr)
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return reproerr.RepoClone("creating parent dir for %s: %v", dst, err)
	}
	in, err := os.Open(src)
	if err != nil {
		return reproerr.RepoClone("opening %s: %v", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return reproerr.RepoClone("creating %s: %v", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return reproerr.RepoClone("copying %s -> %s: %v", src, dst, err)
	}
	return nil
}
