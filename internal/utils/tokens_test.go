package utils_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datasage-cli/internal/utils"
)

func TestCountTokens(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"short", "hi", 1},
		{"simple", "hello world", 2},
		{"long", strings.Repeat("a", 4000), 1000},
		{"multibyte", strings.Repeat("é", 8), 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, utils.CountTokens(c.in))
		})
	}
}

func TestTruncateToTokenLimit(t *testing.T) {
	text := strings.Repeat("abcd ", 1000)
	trunc := utils.TruncateToTokenLimit(text, 300)
	assert.LessOrEqual(t, utils.CountTokens(trunc), 300)
	assert.NotEmpty(t, trunc)
	assert.True(t, strings.HasPrefix(text, trunc))

	assert.Equal(t, "short", utils.TruncateToTokenLimit("short", 300))
	assert.Equal(t, "", utils.TruncateToTokenLimit("anything", 0))
}

func TestSafeWriteFileCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")
	b, err := utils.PrettyJSON(map[string]int{"rows": 3})
	require.NoError(t, err)
	require.NoError(t, utils.SafeWriteFile(path, b))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	var m map[string]int
	require.NoError(t, json.Unmarshal(got, &m))
	assert.Equal(t, 3, m["rows"])
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
