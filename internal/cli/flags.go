package cli

import (
	stderrors "errors"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/reviewapp/internal/errors"
	"github.com/mrz1836/reviewapp/internal/tui"
)

// Exit codes for the CLI.
const (
	ExitSuccess      = 0
	ExitError        = 1
	ExitInvalidInput = 2
)

// Output format constants.
const (
	OutputText = tui.FormatText
	OutputJSON = tui.FormatJSON
)

// GlobalFlags holds flags available to all commands.
type GlobalFlags struct {
	// Output specifies the output format (text or json).
	Output string
	// Verbose enables debug logging and keeps debug lines in the invocation log.
	Verbose bool
	// Quiet suppresses non-essential output (warn level only).
	Quiet bool
	// ConfigFile replaces the global and project config files.
	ConfigFile string
}

// AddGlobalFlags adds persistent flags to the root command.
func AddGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	cmd.PersistentFlags().StringVarP(&flags.Output, "output", "o", OutputText, "output format (text|json)")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "suppress non-essential output")
	cmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "config file (default .reviewapp/config.yaml and ~/.reviewapp/config.yaml)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// BindGlobalFlags binds the global flags to Viper so REVIEWAPP_OUTPUT,
// REVIEWAPP_VERBOSE and REVIEWAPP_QUIET work as well.
func BindGlobalFlags(v *viper.Viper, cmd *cobra.Command) error {
	rootFlags := cmd.Root().PersistentFlags()
	for _, name := range []string{"output", "verbose", "quiet"} {
		if err := v.BindPFlag(name, rootFlags.Lookup(name)); err != nil {
			return err
		}
	}
	v.SetEnvPrefix("REVIEWAPP")
	v.AutomaticEnv()
	return nil
}

// ValidOutputFormats returns the list of valid output format values.
func ValidOutputFormats() []string {
	return []string{OutputText, OutputJSON}
}

// IsValidOutputFormat checks if the given format is a valid output format.
func IsValidOutputFormat(format string) bool {
	return slices.Contains(ValidOutputFormats(), format)
}

// ExitCodeForError maps an error to a process exit code: 0 for nil, 2 for
// bad input (flags, arguments, undecodable payloads), 1 otherwise. A failed
// invocation is 1 even when the request was at fault; the log says why.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if errors.IsExitCode2Error(err) {
		return ExitInvalidInput
	}
	if stderrors.Is(err, errors.ErrInvalidOutputFormat) || stderrors.Is(err, errors.ErrInvalidArgument) {
		return ExitInvalidInput
	}
	if isInvalidInputError(err.Error()) {
		return ExitInvalidInput
	}
	return ExitError
}

// isInvalidInputError matches cobra's flag validation messages.
func isInvalidInputError(errMsg string) bool {
	patterns := []string{
		"unknown flag",
		"unknown shorthand flag",
		"flag needs an argument",
		"invalid argument",
		"if any flags in the group",
		"required flag",
		"unknown command",
	}
	for _, pattern := range patterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
