package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	berrors "git.home.luguber.info/inful/blogbuilder/internal/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/testutil/sitefixture"
)

// newGlobal isolates a command run: it works from dir and captures output.
func newGlobal(t *testing.T, dir string) (*Global, *bytes.Buffer) {
	t.Helper()
	t.Chdir(dir)
	for _, k := range []string{"BLOGBUILDER_POSTS_DIR", "BLOGBUILDER_TEMPLATES_DIR", "BLOGBUILDER_OUTPUT_DIR", "BLOGBUILDER_PORT", "BLOGBUILDER_LOG_LEVEL", "BLOGBUILDER_LOG_FORMAT"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	var out bytes.Buffer
	return &Global{Stdout: &out, LogOutput: &bytes.Buffer{}}, &out
}

func TestParse_Commands(t *testing.T) {
	cases := map[string][]string{
		"build": {"build", "-o", "public"},
		"dev":   {"dev", "--port", "9000", "--metrics-port", "9100"},
		"serve": {"serve", "-p", "9000"},
		"init":  {"init", "site"},
	}
	for want, args := range cases {
		t.Run(want, func(t *testing.T) {
			cli := &CLI{}
			parser, err := kong.New(cli, kong.Vars{"version": "test"})
			require.NoError(t, err)
			ctx, err := parser.Parse(args)
			require.NoError(t, err)
			require.Equal(t, want, ctx.Command()[:len(want)])
		})
	}
}

func TestBuildCmd_BuildsSite(t *testing.T) {
	site := sitefixture.New(t)
	site.WritePost("hello", "Hello", "2025-01-01")
	g, out := newGlobal(t, site.Root)

	cmd := &BuildCmd{}
	require.NoError(t, cmd.Run(g, &CLI{Config: filepath.Join(site.Root, "blogbuilder.yaml")}))
	require.Contains(t, out.String(), "Built 1 posts into dist")
	site.Output().FileExists("index.html").FileExists("hello/index.html").FileExists(".nojekyll")
}

func TestBuildCmd_OutputFlagOverridesConfig(t *testing.T) {
	site := sitefixture.New(t)
	site.WritePost("hello", "Hello", "2025-01-01")
	require.NoError(t, os.WriteFile(filepath.Join(site.Root, "blogbuilder.yaml"), []byte("site:\n  output_dir: from-config\n"), 0o600))
	g, _ := newGlobal(t, site.Root)

	cmd := &BuildCmd{Output: "from-flag"}
	require.NoError(t, cmd.Run(g, &CLI{Config: filepath.Join(site.Root, "blogbuilder.yaml")}))
	_, err := os.Stat(filepath.Join(site.Root, "from-flag", "index.html"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(site.Root, "from-config"))
	require.True(t, os.IsNotExist(err))
}

func TestBuildCmd_TemplateErrorExitCode(t *testing.T) {
	site := sitefixture.New(t)
	site.WriteTemplate("post.html", "{{end}}")
	g, _ := newGlobal(t, site.Root)

	err := (&BuildCmd{}).Run(g, &CLI{})
	require.Error(t, err)
	require.Equal(t, 11, berrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestServeCmd_MissingOutputFails(t *testing.T) {
	dir := t.TempDir()
	g, _ := newGlobal(t, dir)

	err := (&ServeCmd{}).Run(g, &CLI{})
	require.Error(t, err)
	adapter := berrors.NewCLIErrorAdapter(false, nil)
	require.Equal(t, 12, adapter.ExitCodeFor(err))
	require.Contains(t, adapter.FormatError(err), "run 'blogbuilder build' first")
}

func TestServeCmd_InvalidPort(t *testing.T) {
	dir := t.TempDir()
	g, _ := newGlobal(t, dir)

	err := (&ServeCmd{Port: 70000}).Run(g, &CLI{})
	require.Error(t, err)
	require.Equal(t, 2, berrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestDevCmd_MissingTemplatesFails(t *testing.T) {
	dir := t.TempDir()
	g, _ := newGlobal(t, dir)

	err := (&DevCmd{Port: 18123}).Run(g, &CLI{})
	require.Error(t, err)
	require.True(t, berrors.IsCategory(err, berrors.CategoryValidation))
}

func TestInitCmd_ThenBuild(t *testing.T) {
	dir := t.TempDir()
	g, out := newGlobal(t, dir)

	require.NoError(t, (&InitCmd{Dir: dir}).Run(g, &CLI{}))
	require.Contains(t, out.String(), "posts/hello-world/article.md")

	require.NoError(t, (&BuildCmd{}).Run(g, &CLI{Config: filepath.Join(dir, "blogbuilder.yaml")}))
	_, err := os.Stat(filepath.Join(dir, "dist", "hello-world", "index.html"))
	require.NoError(t, err)

	err = (&InitCmd{Dir: dir}).Run(g, &CLI{})
	require.Error(t, err)
	require.True(t, berrors.IsCategory(err, berrors.CategoryFileSystem))
}

func TestSignalContext(t *testing.T) {
	ctx, cancel := signalContext()
	cancel()
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}
