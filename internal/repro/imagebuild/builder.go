package imagebuild

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"

	"github.com/scitorrent/arandu-repro/internal/logging"
	"github.com/scitorrent/arandu-repro/internal/repro/envdetect"
	"github.com/scitorrent/arandu-repro/internal/reproerr"
)

var log = logging.Get("imagebuild")

// Build writes a generated Dockerfile into repoPath and invokes a build via
// the Docker client, producing an image tagged Tag(jobID). On any failure it
// returns a DockerBuildError (spec §4.6).
func Build(ctx context.Context, cli *client.Client, jobID, repoPath string, env *envdetect.EnvironmentInfo, nonRootUser string, nonRootUID int) (string, error) {
	step := logging.LogStep("imagebuild", jobID, "build_image")
	var err error
	defer func() { step.End(err) }()

	dockerfile := GenerateDockerfile(env, nonRootUser, nonRootUID)
	dockerfilePath := filepath.Join(repoPath, "Dockerfile")
	if err = os.WriteFile(dockerfilePath, []byte(dockerfile), 0o644); err != nil {
		err = reproerr.DockerBuildFailed("writing generated Dockerfile: %v", err)
		return "", err
	}

	buildCtx, err := tarDirectory(repoPath)
	if err != nil {
		err = reproerr.DockerBuildFailed("creating build context: %v", err)
		return "", err
	}

	tag := Tag(jobID)
	resp, buildErr := cli.ImageBuild(ctx, buildCtx, types.ImageBuildOptions{
		Tags:       []string{tag},
		Dockerfile: "Dockerfile",
		Remove:     true,
	})
	if buildErr != nil {
		err = reproerr.DockerBuildFailed("docker image build for %s: %v", tag, buildErr)
		return "", err
	}
	defer resp.Body.Close()

	output, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		err = reproerr.DockerBuildFailed("reading build output for %s: %v", tag, readErr)
		return "", err
	}
	if bytes.Contains(output, []byte(`"error"`)) {
		err = reproerr.DockerBuildFailed("docker build reported an error for %s: %s", tag, truncate(output, 2000))
		return "", err
	}

	log.Info("built image %s", tag)
	return tag, nil
}

// RemoveImage removes a built image, tolerating a missing image (already
// cleaned up by a prior exit path).
func RemoveImage(ctx context.Context, cli *client.Client, tag string) error {
	if _, err := cli.ImageRemove(ctx, tag, types.ImageRemoveOptions{Force: true}); err != nil {
		if client.IsErrNotFound(err) {
			return nil
		}
		return fmt.Errorf("removing image %s: %w", tag, err)
	}
	return nil
}

func tarDirectory(root string) (io.Reader, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	defer tw.Close()

	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		header, hdrErr := tar.FileInfoHeader(info, "")
		if hdrErr != nil {
			return hdrErr
		}
		header.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		f, openErr := os.Open(path)
		if openErr != nil {
			return openErr
		}
		defer f.Close()
		_, err := io.Copy(tw, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &buf, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "...[truncated]"
}
