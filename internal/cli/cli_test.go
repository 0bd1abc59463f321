package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	cmd := newRootCmd()
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"convert", "describe", "formats", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestRootCmd_RejectsOutputFormat(t *testing.T) {
	_, _, err := run(t, "formats", "-o", "yaml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestConvert_CleansProjectsAndWrites(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "scenario.csv", "a,b\n1,2\n1,2\n3,\n")
	outDir := filepath.Join(dir, "out")

	stdout, _, err := run(t, "convert", "--to", "json",
		"--clean", "remove-duplicates", "--clean", "fill-missing-mean",
		"--out", outDir, in)
	require.NoError(t, err)
	assert.Contains(t, stdout, "scenario.json")

	data, err := os.ReadFile(filepath.Join(outDir, "scenario.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"a":1,"b":2},{"a":3,"b":2}]`, string(data))
}

func TestConvert_Columns(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "s.csv", "a,b,c\n1,2,3\n")

	_, _, err := run(t, "convert", "--to", "csv", "--columns", "c,a", "--out", filepath.Join(dir, "o"), in)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "o", "s.csv"))
	require.NoError(t, err)
	assert.Equal(t, "c,a\n3,1\n", string(data))
}

func TestConvert_FailedFileIsSkipped(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.csv", "a\n1\n")
	bad := writeFile(t, dir, "notes.pdf", "%PDF-1.4")
	missing := filepath.Join(dir, "missing.csv")

	stdout, stderr, err := run(t, "convert", "--to", "json", "--out", dir, bad, missing, good, "-o", "json")
	require.Error(t, err)
	assert.ErrorIs(t, err, errFilesFailed)
	assert.Contains(t, stderr, "missing.csv")

	var outcomes []convertOutcome
	require.NoError(t, json.Unmarshal([]byte(stdout), &outcomes))
	require.Len(t, outcomes, 2)
	require.NotNil(t, outcomes[0].Error)
	assert.Equal(t, "FILE006", outcomes[0].Error.Code)
	assert.Nil(t, outcomes[1].Error)
	assert.Equal(t, 1, outcomes[1].Rows)

	_, err = os.Stat(filepath.Join(dir, "good.json"))
	assert.NoError(t, err)
}

func TestConvert_RefusesToOverwriteInput(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "same.csv", "a\n1\n")

	_, _, err := run(t, "convert", "--to", "csv", "--out", dir, in)
	require.ErrorIs(t, err, errFilesFailed)

	data, err := os.ReadFile(in)
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n", string(data))
}

func TestConvert_SameBaseNameFromTwoDirectories(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "q1-report.csv", "a\n1\n")
	second := filepath.Join(dir, "copy", "q1-report.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(second), 0o755))
	writeFile(t, filepath.Dir(second), "q1-report.csv", "a\n2\n")
	outDir := filepath.Join(dir, "out")

	stdout, stderr, err := run(t, "convert", "--to", "json", "--out", outDir, "-o", "json", first, second)
	require.ErrorIs(t, err, errFilesFailed)
	assert.Contains(t, stderr, "FAILED")
	assert.Contains(t, stderr, "already written from "+first)

	var outcomes []convertOutcome
	require.NoError(t, json.Unmarshal([]byte(stdout), &outcomes))
	require.Len(t, outcomes, 2)
	assert.Nil(t, outcomes[0].Error)
	require.NotNil(t, outcomes[1].Error)
	assert.Contains(t, outcomes[1].Error.Message, "refusing to overwrite")

	data, err := os.ReadFile(filepath.Join(outDir, "q1-report.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"a":1}]`, string(data))
}

func TestReportFailure(t *testing.T) {
	t.Run("coded errors carry their code", func(t *testing.T) {
		dir := t.TempDir()
		bad := writeFile(t, dir, "notes.pdf", "%PDF-1.4")

		_, stderr, err := run(t, "convert", "--to", "json", "--out", dir, bad)
		require.ErrorIs(t, err, errFilesFailed)
		assert.Contains(t, stderr, "FAILED "+bad+":")
		assert.Contains(t, stderr, "(Code: FILE006)")
	})

	t.Run("other errors keep their text", func(t *testing.T) {
		_, err := os.ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
		require.Error(t, err)
		assert.Equal(t, err.Error(), failureDetail(err))

		msg := outcomeError(errFilesFailed)
		assert.Equal(t, "ERR000", msg.Code)
		assert.Equal(t, errFilesFailed.Error(), msg.Message)
	})

	t.Run("buffers are never colored", func(t *testing.T) {
		assert.False(t, colorize(&bytes.Buffer{}))

		t.Setenv("NO_COLOR", "1")
		assert.False(t, colorize(os.Stderr))
	})
}

func TestConvert_FlagErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "s.csv", "a\n1\n")

	_, _, err := run(t, "convert", in)
	assert.ErrorContains(t, err, "to")

	_, _, err = run(t, "convert", "--to", "pdf", in)
	assert.Error(t, err)

	_, _, err = run(t, "convert", "--to", "json", "--clean", "shuffle", in)
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "d.csv", "n,c\n1,x\n2,x\n3,y\n")

	stdout, _, err := run(t, "describe", in)
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 rows, 2 columns")
	assert.Contains(t, stdout, "x (2)")

	stdout, _, err = run(t, "describe", "-o", "json", in)
	require.NoError(t, err)
	var outcomes []describeOutcome
	require.NoError(t, json.Unmarshal([]byte(stdout), &outcomes))
	require.Len(t, outcomes, 1)
	require.NotNil(t, outcomes[0].Summary)
	require.NotNil(t, outcomes[0].Summary.Fields[0].Numeric)
	assert.Equal(t, 2.0, outcomes[0].Summary.Fields[0].Numeric.Mean)
}

func TestFormats(t *testing.T) {
	stdout, _, err := run(t, "formats", "-o", "json")
	require.NoError(t, err)

	var rows []formatRow
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	byKey := map[string]formatRow{}
	for _, r := range rows {
		byKey[r.Key] = r
	}
	assert.True(t, byKey["parquet"].Target)
	assert.False(t, byKey["txt"].Target)

	stdout, _, err = run(t, "formats")
	require.NoError(t, err)
	assert.Contains(t, stdout, "EXTENSION")
}

func TestVersion(t *testing.T) {
	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "tabconv version")
}
