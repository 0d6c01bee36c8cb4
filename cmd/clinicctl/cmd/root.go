package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/ai"
	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/auth"
	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/disease"
	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/patient"
	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/user"
	"github.com/clinicdesk/clinic/cmd/clinicctl/internal/client"
	"github.com/clinicdesk/clinic/cmd/clinicctl/internal/config"
	"github.com/clinicdesk/clinic/cmd/clinicctl/internal/logging"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "clinicctl",
	Short: "Clinic CLI - clinical records client",
	Long: `clinicctl is the command-line client for the clinic records service.

Each command group maps onto a role portal: user (admin), patient (nurse,
doctor), disease and ai (doctor). Sign in with 'clinicctl auth login'.

Settings are read from flags, CLINIC_* environment variables and
$HOME/.clinic/config.yaml, in that order.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("server", "", "Clinic API server URL (CLINIC_SERVER_URL)")
	flags.StringVar(&configFile, "config", "", "Config file (default $HOME/.clinic/config.yaml)")
	flags.String("log-level", "", "Log level: trace, debug, info, warn, error (CLINIC_LOG_LEVEL)")
	flags.Bool("non-interactive", false, "Disable interactive prompts (CLINIC_NON_INTERACTIVE=1)")

	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(user.UserCmd)
	rootCmd.AddCommand(patient.PatientCmd)
	rootCmd.AddCommand(disease.DiseaseCmd)
	rootCmd.AddCommand(ai.AICmd)
}

// setup loads settings and injects the shared config into the command context.
func setup(cmd *cobra.Command, args []string) error {
	v := viper.New()
	flags := cmd.Root().PersistentFlags()
	for key, flag := range map[string]string{
		"server_url":      "server",
		"log_level":       "log-level",
		"non_interactive": "non-interactive",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("bind --%s: %w", flag, err)
		}
	}

	settings, err := config.Load(v, configFile)
	if err != nil {
		return err
	}

	logger := logging.Init(logging.Options{Level: settings.LogLevel, Pretty: settings.LogPretty})
	opts := settings.ClientOptions()
	opts.Logger = logger
	provider := client.NewProvider(opts)
	if token := os.Getenv("CLINIC_TOKEN"); token != "" {
		logger.Debug().Msg("using ephemeral credential from CLINIC_TOKEN")
		provider.SetBearerToken(token)
	}

	cmd.SetContext(config.InjectConfig(cmd.Context(), &config.GlobalConfig{
		Settings:       *settings,
		ClientProvider: provider,
	}))
	return nil
}
