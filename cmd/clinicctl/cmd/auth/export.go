package auth

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/internal/config"
	"github.com/clinicdesk/clinic/pkg/sdk"
)

var (
	shellFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the session credential as CLINIC_TOKEN",
	Long: `Export the stored credential as a CLINIC_TOKEN environment variable.

Commands run with CLINIC_TOKEN set use it instead of the credential store,
which lets scripts and CI reuse a session without touching $HOME.

Supported shells:
  - posix (bash, zsh, sh) - default
  - fish
  - powershell

Usage:
  # POSIX shells (bash/zsh/sh)
  eval $(clinicctl auth export)

  # Fish shell
  eval (clinicctl auth export --shell fish)

  # PowerShell
  clinicctl auth export --shell powershell | Invoke-Expression`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&shellFormat, "shell", "", "Shell format: posix, fish, powershell (auto-detected if not specified)")
}

func runExport(cmd *cobra.Command, args []string) error {
	provider := config.MustFromContext(cmd.Context()).ClientProvider

	store, err := provider.TokenStore()
	if err != nil {
		return err
	}
	token, err := store.Get()
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w\n\nPlease run 'clinicctl auth login' first", err)
	}
	claims, err := sdk.DecodeClaims(token)
	if err != nil {
		return fmt.Errorf("stored credential is unusable: %w\n\nPlease run 'clinicctl auth login' again", err)
	}
	if claims.IsExpired() {
		return fmt.Errorf("access token has expired\n\nPlease run 'clinicctl auth login' to refresh your credentials")
	}

	format := shellFormat
	if format == "" {
		format = detectShell()
	}
	line, err := exportLine(strings.ToLower(format), string(token))
	if err != nil {
		return err
	}

	if isTerminal(os.Stdout) {
		fmt.Fprintln(os.Stderr, "# Run this command to configure your shell:")
		fmt.Fprintln(os.Stderr, "#   "+evalHint(format))
		fmt.Fprintln(os.Stderr, "")
	}
	_, err = io.WriteString(cmd.OutOrStdout(), line)
	return err
}

// exportLine renders the assignment for shell.
func exportLine(shell, token string) (string, error) {
	switch shell {
	case "posix", "bash", "zsh", "sh":
		return fmt.Sprintf("export CLINIC_TOKEN=\"%s\"\n", token), nil
	case "fish":
		return fmt.Sprintf("set -x CLINIC_TOKEN \"%s\"\n", token), nil
	case "powershell", "pwsh", "ps1":
		return fmt.Sprintf("$env:CLINIC_TOKEN=\"%s\"\n", token), nil
	default:
		return "", fmt.Errorf("unsupported shell format: %s\n\nSupported formats: posix, fish, powershell", shell)
	}
}

func evalHint(shell string) string {
	switch shell {
	case "fish":
		return "eval (clinicctl auth export --shell fish)"
	case "powershell", "pwsh", "ps1":
		return "clinicctl auth export --shell powershell | Invoke-Expression"
	default:
		return "eval $(clinicctl auth export)"
	}
}

// detectShell attempts to detect the current shell from the SHELL environment variable
func detectShell() string {
	shell := os.Getenv("SHELL")
	if shell == "" {
		return "posix"
	}

	switch filepath.Base(shell) {
	case "fish":
		return "fish"
	case "pwsh", "powershell":
		return "powershell"
	default:
		return "posix"
	}
}

// isTerminal checks if the given file is a terminal (TTY)
func isTerminal(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
