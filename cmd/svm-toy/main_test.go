package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const toyData = `1 1:0.2 2:0.3
1 1:0.3 2:0.1
1 1:0.1 2:0.2
2 1:0.8 2:0.9
2 1:0.9 2:0.7
2 1:0.7 2:0.8
3 1:0.2 2:0.8
3 1:0.1 2:0.9
3 1:0.3 2:0.7
`

func TestToyRendersPNG(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "toy.txt")
	require.NoError(t, os.WriteFile(data, []byte(toyData), 0o644))

	for _, args := range [][]string{
		{"-q", "-c", "100"},
		{"-q", "-s", "3"},
		{"-q", "-s", "2", "-n", "0.3"},
	} {
		out := filepath.Join(dir, "toy.png")
		var stderr bytes.Buffer
		require.NoError(t, run(append(args, data, out), &stderr), "args %v", args)

		b, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(b, []byte("\x89PNG")))
	}
}

func TestToyErrors(t *testing.T) {
	var stderr bytes.Buffer
	assert.Error(t, run([]string{"-q", "only_one_arg"}, &stderr))
	assert.Error(t, run([]string{"-q", "-t", "4", "a", "b.png"}, &stderr))
}
