package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/indexer"
	"github.com/dpshade/promptlib/internal/listing"
	"github.com/dpshade/promptlib/internal/models"
)

const testConfig = `prompt_dirs: [analysis, development]
log:
  level: error
`

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func prompt(id, title, category, tags string) string {
	return fmt.Sprintf(`---
id: %s
title: %s
description: Prompt %s
category: %s
tags: [%s]
version: "1.0"
status: active
llm_model_compatibility: [any]
---
# %s

Body of %s.
`, id, title, id, category, tags, title, id)
}

func newLibrary(t *testing.T) string {
	t.Helper()
	t.Setenv("GLAMOUR_STYLE", "notty")

	root := t.TempDir()
	writeFile(t, root, ".promptlib.yaml", testConfig)
	writeFile(t, root, "analysis/market.md", prompt("market-scan", "Market Scanner", "analysis", "trading"))
	writeFile(t, root, "analysis/README.md", "# Analysis\n")
	writeFile(t, root, "development/review.md", prompt("code-review", "Code Reviewer", "development", "go, review"))
	writeFile(t, root, "development/tests.md", prompt("test-writer", "Test Writer", "development", "go, testing"))
	return root
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestIndexCommand(t *testing.T) {
	root := newLibrary(t)

	out, _, err := run(t, "index", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 3 document(s) into metadata/prompt_index.yaml")
	assert.Contains(t, out, "Updated listing analysis/README.md (1 prompt(s))")

	index, err := os.ReadFile(filepath.Join(root, "metadata", "prompt_index.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "id: market-scan")

	readme, err := os.ReadFile(filepath.Join(root, "analysis", "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(readme), "- **[Market Scanner](market.md)**")

	// second run leaves the listing alone
	out, _, err = run(t, "generate-index", "--root", root)
	require.NoError(t, err)
	assert.NotContains(t, out, "Updated listing")
}

func TestIndexCommandHaltsOnDuplicate(t *testing.T) {
	root := newLibrary(t)
	writeFile(t, root, "development/copy.md", prompt("code-review", "Copy", "development", "go"))

	out, errOut, err := run(t, "index", "--root", root)
	require.ErrorIs(t, err, errFailed)
	assert.Contains(t, out, "index not written")
	assert.Contains(t, errOut, "development/copy.md")

	_, err = os.Stat(filepath.Join(root, "metadata", "prompt_index.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestValidateCommand(t *testing.T) {
	root := newLibrary(t)

	out, _, err := run(t, "validate", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "All 3 document(s) valid")

	writeFile(t, root, "analysis/wrong.md", prompt("wrong", "Wrong", "trading", "x"))
	_, errOut, err := run(t, "validate", "--root", root, "--verbose")
	require.ErrorIs(t, err, errFailed)
	assert.Contains(t, errOut, "PATH_CONSISTENCY_VIOLATION")
	assert.Contains(t, errOut, "analysis/wrong.md")

	_, err = os.Stat(filepath.Join(root, "metadata"))
	assert.True(t, os.IsNotExist(err))
}

func TestListCommand(t *testing.T) {
	root := newLibrary(t)
	_, _, err := run(t, "index", "--root", root)
	require.NoError(t, err)

	out, _, err := run(t, "list", "--root", root, "--category", "development")
	require.NoError(t, err)
	assert.Contains(t, out, "code-review")
	assert.Contains(t, out, "test-writer")
	assert.NotContains(t, out, "market-scan")

	out, _, err = run(t, "list", "--root", root, "--match", "go AND NOT review", "--format", "json")
	require.NoError(t, err)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "test-writer", listed[0]["id"])

	out, _, err = run(t, "ls", "--root", root, "--tag", "trading", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "id: market-scan")

	_, _, err = run(t, "list", "--root", root, "--format", "xml")
	require.Error(t, err)

	_, _, err = run(t, "list", "--root", root, "--match", "go AND (review")
	require.Error(t, err)
}

func TestListBeforeIndex(t *testing.T) {
	root := newLibrary(t)

	_, _, err := run(t, "list", "--root", root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt_index.yaml")
}

func TestSearchAndTagsCommands(t *testing.T) {
	root := newLibrary(t)
	_, _, err := run(t, "index", "--root", root)
	require.NoError(t, err)

	out, _, err := run(t, "search", "--root", root, "reviewer")
	require.NoError(t, err)
	assert.Contains(t, out, "code-review")

	out, _, err = run(t, "tags", "--root", root)
	require.NoError(t, err)
	assert.Equal(t, "go\nreview\ntesting\ntrading\n", out)
}

func TestShowCommand(t *testing.T) {
	root := newLibrary(t)
	_, _, err := run(t, "index", "--root", root)
	require.NoError(t, err)

	out, _, err := run(t, "show", "--root", root, "test-writer")
	require.NoError(t, err)
	assert.Contains(t, out, "ID: test-writer | Version: 1.0 | Status: active")
	assert.Contains(t, out, "File: development/tests.md")
	assert.Contains(t, out, "Body of test-writer.")

	out, _, err = run(t, "show", "--root", root, "--raw", "test-writer")
	require.NoError(t, err)
	assert.Equal(t, prompt("test-writer", "Test Writer", "development", "go, testing"), out)

	_, _, err = run(t, "show", "--root", root, "nope")
	require.Error(t, err)
}

func TestVersionSkipsConfig(t *testing.T) {
	out, _, err := run(t, "version", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "promptlib test")
}

func TestMissingExplicitConfig(t *testing.T) {
	_, _, err := run(t, "validate", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestExecuteExitCodes(t *testing.T) {
	root := newLibrary(t)

	exec := func(ctx context.Context, args ...string) (int, string) {
		var out, errOut bytes.Buffer
		code := execute(ctx, "test", args, &out, &errOut)
		return code, errOut.String()
	}

	code, _ := exec(context.Background(), "index", "--root", root)
	assert.Equal(t, 0, code)

	code, errOut := exec(context.Background(), "show", "--root", root, "--verbose", "nope")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "[NOT_FOUND]")

	code, errOut = exec(context.Background(), "validate", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "failed to load configuration")

	writeFile(t, root, "development/copy.md", prompt("code-review", "Copy", "development", "go"))
	code, _ = exec(context.Background(), "validate", "--root", root)
	assert.Equal(t, 1, code)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	code, _ = exec(ctx, "index", "--root", root)
	assert.Equal(t, 130, code)
}

func TestPrintReportListingWriteFailure(t *testing.T) {
	writeErr := errors.WriteFailure("analysis/README.md", fmt.Errorf("read-only file system"))
	report := &indexer.Report{
		Valid:        true,
		IndexWritten: true,
		IndexPath:    "metadata/prompt_index.yaml",
		Corpus:       &models.Corpus{Documents: []*models.Document{{RelativePath: "analysis/a.md", Valid: true}}},
		Diagnostics:  []*errors.AppError{writeErr},
		Listings: []listing.SyncResult{
			{Dir: "analysis", Path: "analysis/README.md", Status: listing.StatusFailed, Err: writeErr},
		},
	}
	require.True(t, report.Failed())

	var out, errOut bytes.Buffer
	printReport(&errOut, &out, &options{handler: errors.NewCLIErrorHandler(false, nil)}, report)

	assert.Contains(t, out.String(), "Indexed 1 document(s) into metadata/prompt_index.yaml")
	assert.Contains(t, out.String(), "Listing not updated: analysis/README.md")
	assert.NotContains(t, out.String(), "Index not written")
	assert.Contains(t, errOut.String(), "read-only file system")
}
