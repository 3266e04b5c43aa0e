package cmd

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// Flags win when set explicitly, then the environment, then the flag default.

func stringFlagOrEnv(cmd *cobra.Command, flag, env, value string) string {
	if cmd.Flags().Changed(flag) {
		return value
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return value
}

func boolFlagOrEnv(cmd *cobra.Command, flag, env string, value bool) bool {
	if cmd.Flags().Changed(flag) {
		return value
	}
	if v, err := strconv.ParseBool(os.Getenv(env)); err == nil {
		return v
	}
	return value
}

func intFlagOrEnv(cmd *cobra.Command, flag, env string, value int) int {
	if cmd.Flags().Changed(flag) {
		return value
	}
	if v, err := strconv.Atoi(os.Getenv(env)); err == nil {
		return v
	}
	return value
}

func int64FlagOrEnv(cmd *cobra.Command, flag, env string, value int64) int64 {
	if cmd.Flags().Changed(flag) {
		return value
	}
	if v, err := strconv.ParseInt(os.Getenv(env), 10, 64); err == nil {
		return v
	}
	return value
}

func durationFlagOrEnv(cmd *cobra.Command, flag, env string, value time.Duration) time.Duration {
	if cmd.Flags().Changed(flag) {
		return value
	}
	if v, err := time.ParseDuration(os.Getenv(env)); err == nil {
		return v
	}
	return value
}
