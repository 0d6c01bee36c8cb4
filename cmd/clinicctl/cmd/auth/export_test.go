package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportLine(t *testing.T) {
	tests := []struct {
		shell string
		want  string
	}{
		{shell: "posix", want: "export CLINIC_TOKEN=\"tok\"\n"},
		{shell: "zsh", want: "export CLINIC_TOKEN=\"tok\"\n"},
		{shell: "fish", want: "set -x CLINIC_TOKEN \"tok\"\n"},
		{shell: "pwsh", want: "$env:CLINIC_TOKEN=\"tok\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			got, err := exportLine(tt.shell, "tok")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := exportLine("tcsh", "tok")
	assert.Error(t, err)
}

func TestDetectShell(t *testing.T) {
	t.Setenv("SHELL", "/usr/bin/fish")
	assert.Equal(t, "fish", detectShell())
	t.Setenv("SHELL", "/usr/local/bin/pwsh")
	assert.Equal(t, "powershell", detectShell())
	t.Setenv("SHELL", "/bin/bash")
	assert.Equal(t, "posix", detectShell())
	t.Setenv("SHELL", "")
	assert.Equal(t, "posix", detectShell())
}
