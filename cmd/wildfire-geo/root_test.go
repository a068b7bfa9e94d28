package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirmsDecodeCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "area.csv")
	csv := "latitude,longitude,bright_ti4,acq_date\n" +
		"34.1,-118.2,330.5,2026-05-01\n" +
		",-118.3,301.0,2026-05-01\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))

	var out bytes.Buffer
	root := newRootCmd("test")
	root.SetOut(&out)
	root.SetArgs([]string{"firms-decode", path})
	require.NoError(t, root.Execute())

	var got struct {
		Count   int                 `json:"count"`
		Records []map[string]string `json:"records"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, 1, got.Count)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "330.5", got.Records[0]["bright_ti4"])
}

func TestFirmsDecodeCommand_MissingFile(t *testing.T) {
	root := newRootCmd("test")
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"firms-decode", filepath.Join(t.TempDir(), "nope.csv")})
	assert.Error(t, root.Execute())
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd("test")
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "refresh", "lookup", "firms-decode"})
}
