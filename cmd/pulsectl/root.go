package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"pulsescore-backend/internal/scoring"
)

const envPrefix = "PULSECTL"

// newRootCmd builds the command tree around its own viper instance so flags,
// PULSECTL_* variables and defaults resolve the same way in tests.
func newRootCmd(out io.Writer) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "pulsectl",
		Short:         "Score PulseScore surveys offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.PersistentFlags().String("config", "", "Scoring configuration YAML (built-in default when empty)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Log excluded response items to stderr")
	_ = v.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))

	root.AddCommand(newScoreCmd(v), newConfigCmd(v))
	return root
}

func loadScoringConfig(v *viper.Viper) (scoring.Config, error) {
	return scoring.LoadConfigFile(v.GetString("config"))
}

func buildEngine(v *viper.Viper) (*scoring.Engine, error) {
	cfg, err := loadScoringConfig(v)
	if err != nil {
		return nil, err
	}
	logger := zap.NewNop()
	if v.GetBool("verbose") {
		if dev, err := zap.NewDevelopment(); err == nil {
			logger = dev
		}
	}
	return scoring.NewEngine(cfg, scoring.WithLogger(logger))
}
