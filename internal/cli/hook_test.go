package cli

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHookSection(t *testing.T) {
	section := hookSection("text", "")
	assert.Contains(t, section, hookMarkerStart)
	assert.Contains(t, section, hookMarkerEnd)
	assert.Contains(t, section, "reviewtour tour commit HEAD --format text ||")
	assert.NotContains(t, section, "--out")

	section = hookSection("markdown", "it's.md")
	assert.Contains(t, section, `--format markdown --out 'it'\''s.md'`)
}

func TestUpsertHookSection(t *testing.T) {
	section := hookSection("text", "")

	tests := []struct {
		name     string
		existing string
		want     string
	}{
		{"empty", "", "#!/bin/sh\n" + section},
		{"appends", "#!/bin/sh\nother-hook\n", "#!/bin/sh\nother-hook\n" + section},
		{"adds newline", "#!/bin/sh\nother-hook", "#!/bin/sh\nother-hook\n" + section},
		{
			"replaces",
			"#!/bin/sh\n" + hookSection("json", "") + "after\n",
			"#!/bin/sh\n" + section + "after\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, upsertHookSection(tt.existing, section))
		})
	}
}

func TestRemoveHookSection(t *testing.T) {
	script := "#!/bin/sh\nbefore\n" + hookSection("text", "") + "after\n"
	assert.Equal(t, "#!/bin/sh\nbefore\nafter\n", removeHookSection(script))
	assert.Equal(t, "#!/bin/sh\nonly\n", removeHookSection("#!/bin/sh\nonly\n"))
}

func TestIsEmptyScript(t *testing.T) {
	assert.True(t, isEmptyScript(""))
	assert.True(t, isEmptyScript("#!/bin/sh\n"))
	assert.True(t, isEmptyScript("#!/bin/bash\n\n"))
	assert.False(t, isEmptyScript("#!/bin/sh\necho hi\n"))
}

func TestHookInstallUninstall(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	require.NoError(t, exec.Command("git", "init", "-q", dir).Run())
	chdir(t, dir)
	resetFlags(t)

	hookCmd.SetArgs([]string{"install"})
	require.NoError(t, hookCmd.Execute())
	path := filepath.Join(dir, ".git", "hooks", hookName)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "reviewtour tour commit HEAD")

	hookCmd.SetArgs([]string{"uninstall"})
	require.NoError(t, hookCmd.Execute())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
