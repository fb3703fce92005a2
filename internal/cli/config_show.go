package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/reviewapp/internal/config"
	"github.com/mrz1836/reviewapp/internal/logging"
	"github.com/mrz1836/reviewapp/internal/tui"
)

// AddConfigCommand adds the config command group to root.
func AddConfigCommand(root *cobra.Command, global *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect reviewapp configuration",
	}
	cmd.AddCommand(newConfigShowCmd(global))
	root.AddCommand(cmd)
}

func newConfigShowCmd(global *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration",
		Long: `Display the effective configuration and where each value came from:
  - env: an environment variable (REVIEWAPP_* or a CI name such as TARGET_ORG)
  - project: .reviewapp/config.yaml
  - global: ~/.reviewapp/config.yaml
  - default: built-in default

Tokens, passwords and the Slack webhook path are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd.Context(), cmd.OutOrStdout(), global)
		},
	}
}

// ConfigSource represents where a configuration value came from.
type ConfigSource string

// Configuration sources, highest precedence first.
const (
	SourceEnv     ConfigSource = "env"
	SourceProject ConfigSource = "project"
	SourceGlobal  ConfigSource = "global"
	SourceDefault ConfigSource = "default"
)

// ConfigValueWithSource is one annotated configuration value.
type ConfigValueWithSource struct {
	Value  any          `json:"value" yaml:"value"`
	Source ConfigSource `json:"source" yaml:"source"`
}

// AnnotatedConfig maps section to key to annotated value.
type AnnotatedConfig map[string]map[string]ConfigValueWithSource

func runConfigShow(ctx context.Context, w io.Writer, global *GlobalFlags) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	cfg, err := config.LoadFile(ctx, global.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var project, globalValues map[string]any
	if global.ConfigFile != "" {
		project = loadConfigFile(global.ConfigFile)
	} else {
		project = loadConfigFile(config.ProjectConfigPath())
		if path, err := config.GlobalConfigPath(); err == nil {
			globalValues = loadConfigFile(path)
		}
	}

	annotated, err := buildAnnotatedConfig(cfg, project, globalValues)
	if err != nil {
		return err
	}

	if global.Output == OutputJSON {
		return tui.NewJSONOutput(w).JSON(annotated)
	}
	return outputYAML(w, annotated)
}

// buildAnnotatedConfig flattens cfg through its yaml tags and annotates
// every key with its source. Sensitive values are masked.
func buildAnnotatedConfig(cfg *config.Config, project, global map[string]any) (AnnotatedConfig, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	var sections map[string]map[string]any
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	out := make(AnnotatedConfig, len(sections))
	for section, values := range sections {
		out[section] = make(map[string]ConfigValueWithSource, len(values))
		for key, value := range values {
			full := section + "." + key
			out[section][key] = ConfigValueWithSource{
				Value:  maskSensitiveValue(full, value),
				Source: determineSource(full, project, global),
			}
		}
	}
	return out, nil
}

// loadConfigFile reads a config file into nested maps. Missing or invalid
// files yield nil.
func loadConfigFile(path string) map[string]any {
	data, err := os.ReadFile(path) //nolint:gosec // config file path
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

func hasKey(values map[string]any, key string) bool {
	section, name, _ := strings.Cut(key, ".")
	sub, ok := values[section].(map[string]any)
	if !ok {
		return false
	}
	_, ok = sub[name]
	return ok
}

func determineSource(key string, project, global map[string]any) ConfigSource {
	for _, name := range config.EnvNames(key) {
		if os.Getenv(name) != "" {
			return SourceEnv
		}
	}
	if hasKey(project, key) {
		return SourceProject
	}
	if hasKey(global, key) {
		return SourceGlobal
	}
	return SourceDefault
}

func maskSensitiveValue(key string, value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	return logging.SafeValue(strings.ReplaceAll(key, ".", "_"), s)
}

type configShowStyles struct {
	header  lipgloss.Style
	section lipgloss.Style
	key     lipgloss.Style
	dim     lipgloss.Style
	sources map[ConfigSource]lipgloss.Style
}

func newConfigShowStyles() *configShowStyles {
	return &configShowStyles{
		header:  lipgloss.NewStyle().Bold(true).Foreground(tui.ColorPrimary),
		section: lipgloss.NewStyle().Bold(true),
		key:     lipgloss.NewStyle().Foreground(tui.ColorPrimary),
		dim:     lipgloss.NewStyle().Foreground(tui.ColorMuted),
		sources: map[ConfigSource]lipgloss.Style{
			SourceEnv:     lipgloss.NewStyle().Foreground(tui.ColorError),
			SourceProject: lipgloss.NewStyle().Foreground(tui.ColorWarning),
			SourceGlobal:  lipgloss.NewStyle().Foreground(tui.ColorSuccess),
			SourceDefault: lipgloss.NewStyle().Foreground(tui.ColorMuted),
		},
	}
}

func outputYAML(w io.Writer, annotated AnnotatedConfig) error {
	tui.CheckNoColor()
	styles := newConfigShowStyles()

	_, _ = fmt.Fprintln(w, styles.header.Render("Effective reviewapp configuration"))
	_, _ = fmt.Fprintln(w, styles.dim.Render("Sources: ")+
		styles.sources[SourceEnv].Render("env")+" > "+
		styles.sources[SourceProject].Render("project")+" > "+
		styles.sources[SourceGlobal].Render("global")+" > "+
		styles.sources[SourceDefault].Render("default"))
	_, _ = fmt.Fprintln(w)

	for _, section := range sortedKeys(annotated) {
		_, _ = fmt.Fprintln(w, styles.section.Render(section+":"))
		values := annotated[section]
		for _, key := range sortedKeys(values) {
			vs := values[key]
			_, _ = fmt.Fprintf(w, "  %s: %s  %s\n",
				styles.key.Render(key),
				formatConfigValue(vs.Value),
				styles.sources[vs.Source].Render("# "+string(vs.Source)))
		}
		_, _ = fmt.Fprintln(w)
	}

	if path, err := config.GlobalConfigPath(); err == nil {
		_, _ = fmt.Fprintln(w, styles.dim.Render("Global:  "+describePath(path)))
	}
	_, err := fmt.Fprintln(w, styles.dim.Render("Project: "+describePath(config.ProjectConfigPath())))
	return err
}

func describePath(path string) string {
	if _, err := os.Stat(path); err != nil {
		return path + " (not found)"
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func formatConfigValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "(not set)"
	case string:
		if v == "" {
			return "(not set)"
		}
		return v
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = fmt.Sprint(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(v)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
