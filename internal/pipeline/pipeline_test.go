package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiveform-gen/internal/config"
	"hiveform-gen/internal/gen"
	"hiveform-gen/internal/source"
)

const appSource = `import { HiveForm, Field } from '@hiveform/react';
import { UserFields } from './fields/UserFields';

export const App = () => (
  <main>
    <HiveForm context="account">
      <UserFields />
      <Field name="consent" />
    </HiveForm>
    <HiveForm>
      <Field name="message" />
      <Field name="category" optional />
    </HiveForm>
    <Field name="stray" />
  </main>
);
`

const userFieldsSource = `import { Field } from '@hiveform/react';

export const UserFields = () => (
  <>
    <Field name="username" />
    <Field name="email" optional />
  </>
);
`

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	return root
}

func newPipeline(t *testing.T, cfg *config.Config) *Pipeline {
	t.Helper()

	p, err := New(cfg, nil)
	require.NoError(t, err)

	return p
}

func projectConfig(root string) *config.Config {
	cfg := config.Default()
	cfg.Root = root

	return cfg
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func TestGenerate_ColocatedAndIdempotent(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/App.tsx":               appSource,
		"src/fields/UserFields.tsx": userFieldsSource,
	})
	p := newPipeline(t, projectConfig(root))

	first, err := p.Generate(context.Background(), false)
	require.NoError(t, err)
	require.False(t, first.Diagnostics.HasErrors(), first.Diagnostics.Error())

	assert.Equal(t, []string{"account", "HiveForm1", "OrphanFields"}, first.Resolution.Registry.Contexts())
	assert.Equal(t, 2, gen.Count(first.Writes, gen.StatusWritten))

	account := readFile(t, filepath.Join(root, "src", "form", "account.tsx"))
	assert.True(t, strings.HasPrefix(account, "import { z } from 'zod';\n\n"))
	assert.Contains(t, account, "export type AccountForm = {\n  username: string;\n  email?: string;\n  consent: string;\n};")

	index := readFile(t, filepath.Join(root, "src", "form", "index.tsx"))
	assert.Contains(t, index, "export type HiveForm1Form")
	assert.Contains(t, index, "export type OrphanFieldsForm = {\n  stray: string;\n};")

	_, err = os.Stat(filepath.Join(root, "src", "fields", "form"))
	assert.True(t, os.IsNotExist(err), "fragment files must not produce their own modules")

	second, err := p.Generate(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, gen.Count(second.Writes, gen.StatusUnchanged))
	assert.Equal(t, 0, gen.Count(second.Writes, gen.StatusWritten))
	assert.Equal(t, first.Sources, second.Sources, "generated modules must not be scanned")
	assert.Equal(t, account, readFile(t, filepath.Join(root, "src", "form", "account.tsx")))
}

func TestGenerate_SkipsUnparsableFiles(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/App.tsx":               appSource,
		"src/fields/UserFields.tsx": userFieldsSource,
		"src/Broken.tsx":            "export const Broken = () => <div />; function {",
	})

	report, err := newPipeline(t, projectConfig(root)).Generate(context.Background(), false)
	require.NoError(t, err)

	assert.Len(t, report.Sources, 3)
	assert.Equal(t, 2, report.Parsed)
	require.Len(t, report.Diagnostics.WithCode(source.CodeParseFailed), 1)
	assert.Contains(t, report.Resolution.Registry.Contexts(), "account")
}

func TestGenerate_DryRun(t *testing.T) {
	root := writeProject(t, map[string]string{"src/App.tsx": appSource})

	report, err := newPipeline(t, projectConfig(root)).Generate(context.Background(), true)
	require.NoError(t, err)
	assert.NotEmpty(t, report.Files)
	assert.Equal(t, len(report.Files), gen.Count(report.Writes, gen.StatusWritten))

	_, err = os.Stat(filepath.Join(root, "src", "form"))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerate_SharedOutputDir(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/App.tsx":               appSource,
		"src/fields/UserFields.tsx": userFieldsSource,
	})

	cfg := projectConfig(root)
	cfg.Colocate = false
	cfg.OutputDir = "src/generated"

	p := newPipeline(t, cfg)

	first, err := p.Generate(context.Background(), false)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "src", "generated", "account.tsx"))
	assert.FileExists(t, filepath.Join(root, "src", "generated", "index.tsx"))

	second, err := p.Generate(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, first.Sources, second.Sources)
}

func TestAnalyze(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/App.tsx":               appSource,
		"src/fields/UserFields.tsx": userFieldsSource,
	})

	report, err := newPipeline(t, projectConfig(root)).Analyze(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Resolution.Containers, 2)
	assert.Equal(t, "account", report.Resolution.Containers[0].Context.ID)
	assert.Equal(t, "HiveForm1", report.Resolution.Containers[1].Context.ID)
	assert.Empty(t, report.Files)
}

func TestAnalyze_NoSources(t *testing.T) {
	root := writeProject(t, map[string]string{"src/readme.md": "nothing"})

	_, err := newPipeline(t, projectConfig(root)).Analyze(context.Background())
	require.ErrorIs(t, err, ErrNoSources)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Format = "xml"

	_, err := New(cfg, nil)
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestWatch_RegeneratesOnChange(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/App.tsx":               appSource,
		"src/fields/UserFields.tsx": userFieldsSource,
	})
	p := newPipeline(t, projectConfig(root))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Watch(ctx, 50*time.Millisecond) }()

	output := filepath.Join(root, "src", "form", "account.tsx")
	require.Eventually(t, func() bool {
		_, err := os.Stat(output)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	updated := strings.Replace(userFieldsSource, `<Field name="email" optional />`,
		`<Field name="email" optional />
    <Field name="nickname" />`, 1)
	fragment := filepath.Join(root, "src", "fields", "UserFields.tsx")

	require.Eventually(t, func() bool {
		// Rewrite until the watcher is up and has picked the change.
		_ = os.WriteFile(fragment, []byte(updated), 0o644)

		data, err := os.ReadFile(output)
		return err == nil && strings.Contains(string(data), "nickname")
	}, 10*time.Second, 200*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestRootOf(t *testing.T) {
	roots := []string{filepath.Join("a"), filepath.Join("a", "b")}

	assert.Equal(t, filepath.Join("a", "b"), rootOf(roots, filepath.Join("a", "b", "c.tsx")))
	assert.Equal(t, "a", rootOf(roots, filepath.Join("a", "c.tsx")))
	assert.Empty(t, rootOf(roots, filepath.Join("ab", "c.tsx")))
}
