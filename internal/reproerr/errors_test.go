package reproerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyKnownKinds(t *testing.T) {
	cases := []struct {
		err  error
		kind Kind
	}{
		{RepoClone("bad scheme %q", "ftp"), KindRepoClone},
		{NoEnvironment("no manifest found"), KindNoEnvironment},
		{DockerBuildFailed("pip install failed"), KindDockerBuild},
		{Execution("non-root precondition violated"), KindExecution},
		{ExecutionTimeout("exceeded timeout of %ds", 1800), KindExecutionTimeout},
	}
	for _, c := range cases {
		require.Equal(t, c.kind, Classify(c.err))
	}
}

func TestClassifyUnexpected(t *testing.T) {
	require.Equal(t, KindUnexpected, Classify(errors.New("anything else")))
}

func TestErrorsIsUnwraps(t *testing.T) {
	err := RepoClone("not a github host: %s", "gitlab.com")
	require.True(t, errors.Is(err, ErrRepoClone))
	require.False(t, errors.Is(err, ErrDockerBuild))
}

func TestMessageIsSingleLine(t *testing.T) {
	err := NoEnvironment("Environment detection failed: no manifest found")
	require.Contains(t, Message(err), "Environment detection failed")
	require.NotContains(t, Message(err), "\n")
}
