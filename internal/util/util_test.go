package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdent(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple identifier", input: "id", expected: "`id`"},
		{name: "identifier with underscore", input: "user_id", expected: "`user_id`"},
		{name: "surrounding spaces", input: "  id ", expected: "`id`"},
		{name: "already quoted", input: "`id`", expected: "`id`"},
		{name: "empty string", input: "", expected: ""},
		{name: "identifier with special chars", input: "my-column", expected: "`my-column`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Ident(tt.input))
		})
	}
}

func TestIdentAll(t *testing.T) {
	require.Equal(t, []string{"`id`", "`name`"}, IdentAll([]string{"id", "name"}))
	require.Empty(t, IdentAll(nil))
}

func TestSplitCols(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "plain list", input: "id,name,value", expected: []string{"id", "name", "value"}},
		{name: "spaces and blanks", input: " id , ,name,", expected: []string{"id", "name"}},
		{name: "empty", input: "", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, SplitCols(tt.input))
		})
	}
}

func TestUnquote(t *testing.T) {
	require.Equal(t, "id", Unquote("`id`"))
	require.Equal(t, "id", Unquote(" id "))
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		input    uint64
		expected string
	}{
		{0, "0"},
		{123, "123"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{18446744073709551615, "18,446,744,073,709,551,615"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.expected, FormatNumber(tt.input))
	}
}

func TestSafeRemoveDir(t *testing.T) {
	t.Run("removes directory tree", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "export")
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "a.csv.gz"), []byte("x"), 0o644))

		require.NoError(t, SafeRemoveDir(dir))
		_, err := os.Stat(dir)
		require.True(t, os.IsNotExist(err))
	})

	t.Run("refuses root", func(t *testing.T) {
		require.Error(t, SafeRemoveDir("/"))
	})

	t.Run("refuses regular file", func(t *testing.T) {
		f := filepath.Join(t.TempDir(), "file.txt")
		require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))
		require.Error(t, SafeRemoveDir(f))
	})

	t.Run("missing directory", func(t *testing.T) {
		require.Error(t, SafeRemoveDir(filepath.Join(t.TempDir(), "nope")))
	})
}
