package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/callscreen/internal/screen/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadOverrides_Formats(t *testing.T) {
	files := map[string]string{
		"o.yaml": `
block_digit_count:
  digits: 9
block_regex:
  enabled: true
  pattern: "^\\+1900"
`,
		"o.json": `{"block_digit_count":{"digits":9},"block_regex":{"enabled":true,"pattern":"^\\+1900"}}`,
		"o.toml": `
[block_digit_count]
digits = 9

[block_regex]
enabled = true
pattern = '^\+1900'
`,
	}
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			got, err := LoadOverrides(writeFile(t, name, content))
			require.NoError(t, err)
			require.Len(t, got, 2)

			assert.Equal(t, IDDigitCount, got[0].ID)
			require.NotNil(t, got[0].Digits)
			assert.Equal(t, 9, *got[0].Digits)
			assert.Nil(t, got[0].Enabled)

			assert.Equal(t, IDRegex, got[1].ID)
			require.NotNil(t, got[1].Enabled)
			assert.True(t, *got[1].Enabled)
			require.NotNil(t, got[1].Pattern)
			assert.Equal(t, `^\+1900`, *got[1].Pattern)
		})
	}
}

func TestLoadOverrides_Errors(t *testing.T) {
	_, err := LoadOverrides(writeFile(t, "o.txt", "x"))
	assert.Error(t, err, "unsupported extension")

	_, err = LoadOverrides(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "missing file")

	_, err = LoadOverrides(writeFile(t, "neg.yaml", "block_digit_count:\n  digits: -2\n"))
	assert.Error(t, err, "negative digits")

	_, err = LoadOverrides(writeFile(t, "bad.yaml", "block_regex:\n  pattern: \"[oops\"\n"))
	assert.True(t, errors.Is(err, ErrInvalidPattern), "got %v", err)
}

func TestApplyOverrides(t *testing.T) {
	s, _ := newMemStore(t)
	on := true
	nine := 9
	pat := `^\+1900`
	applied, skipped, err := s.ApplyOverrides([]Override{
		{ID: IDDigitCount, Digits: &nine},
		{ID: IDRegex, Enabled: &on, Pattern: &pat},
		{ID: "ghost", Enabled: &on},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, applied)
	assert.Equal(t, []string{"ghost"}, skipped)

	got := s.GetRules()
	assert.Equal(t, domain.DigitCount{Count: 9}, got[0].Config)
	assert.True(t, got[0].Enabled)
	assert.Equal(t, domain.RegexPattern{Pattern: pat}, got[2].Config)
	assert.True(t, got[2].Enabled)
}

func TestApplyOverrides_Mismatch(t *testing.T) {
	s, _ := newMemStore(t)
	pat := "1"
	_, _, err := s.ApplyOverrides([]Override{{ID: IDAll, Pattern: &pat}})
	assert.True(t, errors.Is(err, domain.ErrConfigMismatch), "got %v", err)
	assert.Equal(t, DefaultRules(), s.GetRules())
}
