package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "cgtool version "+Version+"\n", out)
}

func TestPathCommands(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"path", "normalize", "/a/./b/../c"}, "/a/c\n"},
		{[]string{"path", "canonical", "/a/b/.."}, "/a\n"},
		{[]string{"path", "resolve", "/a/b", "../c"}, "/a/c\n"},
		{[]string{"path", "relative", "/a/b/c", "/a/d"}, "../../d\n"},
		{[]string{"path", "common", "/a/b/c", "/a/b/d"}, "/a/b\n"},
		{[]string{"path", "ancestors", "/a/b/c"}, "/a/b\n/a\n/\n"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	_, err := run(t, "path", "normalize", "/..")
	assert.Error(t, err)
	_, err = run(t, "path", "normalize", "/unknown:a")
	assert.Error(t, err)
}

func TestNameParse(t *testing.T) {
	out, err := run(t, "name", "parse", "jcr:content", "plain")
	require.NoError(t, err)
	assert.Equal(t, "{http://www.jcp.org/jcr/1.0}content\tjcr:content\nplain\tplain\n", out)
}

func TestConvert(t *testing.T) {
	out, err := run(t, "convert", "--type", "Long", "42", "7")
	require.NoError(t, err)
	assert.Equal(t, "42\n7\n", out)

	out, err = run(t, "convert", "-t", "boolean", "TRUE")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	_, err = run(t, "convert", "--type", "Long", "forty")
	assert.Error(t, err)
	_, err = run(t, "convert", "--type", "Wobble", "x")
	assert.Error(t, err)
}

func TestProperty(t *testing.T) {
	t.Setenv("CGTOOL_TEST_HOME", "/opt/cg")

	out, err := run(t, "property", "jcr:title", "${CGTOOL_TEST_HOME}/bin")
	require.NoError(t, err)
	assert.Equal(t, "jcr:title = /opt/cg/bin\n", out)

	out, err = run(t, "property", "--type", "Long", "count", "1", "${CGTOOL_TEST_MISSING:2}")
	require.NoError(t, err)
	assert.Equal(t, "count = [1, 2]\n", out)
}

func TestNamespaceCommands(t *testing.T) {
	root := t.TempDir()

	_, err := run(t, "--root", root, "-w", "ws1", "ns", "register", "ex", "http://example.com/ns")
	require.NoError(t, err)

	out, err := run(t, "--root", root, "-w", "ws1", "ns", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ex\thttp://example.com/ns\n")

	out, err = run(t, "--root", root, "-w", "ws1", "path", "normalize", "/ex:a/./b")
	require.NoError(t, err)
	assert.Equal(t, "/ex:a/b\n", out)

	_, err = run(t, "--root", root, "-w", "ws1", "ns", "unregister", "http://example.com/ns")
	require.NoError(t, err)
	_, err = run(t, "--root", root, "-w", "ws1", "ns", "unregister", "http://example.com/ns")
	assert.Error(t, err)

	_, err = run(t, "--root", root, "-w", "..", "ns", "list")
	assert.Error(t, err)
}

func TestBinaryCommands(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(t.TempDir(), "hello.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0644))

	out, err := run(t, "--root", root, "binary", "put", src)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d\t"), out)

	out, err = run(t, "--root", root, "binary", "get", "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	dst := filepath.Join(t.TempDir(), "out.txt")
	_, err = run(t, "--root", root, "binary", "get", "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d", "-o", dst)
	require.NoError(t, err)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = run(t, "--root", root, "binary", "get", "00ff")
	assert.Error(t, err)
	_, err = run(t, "--root", root, "binary", "get", "zz")
	assert.Error(t, err)
}

func TestSequence(t *testing.T) {
	src := filepath.Join(t.TempDir(), "app.env")
	require.NoError(t, os.WriteFile(src, []byte("NAME=demo\nPORT=8080\n"), 0644))

	out, err := run(t, "sequence", src, "--at", "/config")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "/config/mode:entries", lines[0])
	assert.Contains(t, out, "  jcr:primaryType = nt:unstructured\n")
	assert.Contains(t, out, "  NAME = demo\n")
	assert.Contains(t, out, "  PORT = 8080\n")

	_, err = run(t, "sequence", filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
