package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/coursegen/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "coursegen",
	Short: "Drive the AI course-generation workflow",
	Long: `Coursegen drives a course-generation session on the workflow service:
topic research, topic selection, refinement, lesson scripts, videos or
presentations, and quiz questions.

Commands act on the current session, which is the one last started or
resumed. Use --session to act on another one.`,
	SilenceUsage: true,
}

// Execute runs the root command. An interrupt cancels the running command
// and stops its poll loops.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/coursegen/config.yaml)")
	rootCmd.PersistentFlags().StringP("session", "s", "", "workflow session ID (default is the current session)")
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "answer yes to regeneration prompts")
	rootCmd.PersistentFlags().String("api-url", "", "workflow service base URL")
}

func initConfig() {
	bindFlags()

	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	// A .env in the working directory may carry COURSEGEN_API_TOKEN.
	// Variables already set in the environment win.
	_ = godotenv.Load()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/coursegen")
		viper.AddConfigPath(".")
	}

	// e.g., COURSEGEN_API_BASE_URL for api.base_url
	config.BindEnv(viper.GetViper())

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// bindFlags lets global flags override the matching config keys.
func bindFlags() {
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("session", rootCmd.PersistentFlags().Lookup("session"))
	_ = viper.BindPFlag("confirm.assume_yes", rootCmd.PersistentFlags().Lookup("yes"))
	_ = viper.BindPFlag("api.base_url", rootCmd.PersistentFlags().Lookup("api-url"))
}
