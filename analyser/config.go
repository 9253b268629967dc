package analyser

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegistryBuiltin is the [Config.Registry] value selecting [DefaultRegistry].
const RegistryBuiltin = "builtin"

// Flags holds CLI flag names for analyser configuration, allowing callers to
// customize flag names while keeping sensible defaults via [NewConfig].
type Flags struct {
	Imports     string
	Whitelist   string
	NoWhitelist string
	Registry    string
}

// NewConfig creates a new [Config] embedding these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{
		Flags: f,
	}
}

// Config holds CLI flag values for analyser configuration.
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags]. Use [Config.NewAnalyser] to create an [Analyser].
type Config struct {
	Imports     map[string]string
	Registry    string
	Whitelist   []string
	Flags       Flags
	NoWhitelist bool
}

// NewConfig returns a new [Config] with default flag names.
func NewConfig() *Config {
	f := Flags{
		Imports:     "imports",
		Whitelist:   "whitelist",
		NoWhitelist: "no-whitelist",
		Registry:    "registry",
	}

	return f.NewConfig()
}

// RegisterFlags adds analyser flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringToStringVar(&c.Imports, c.Flags.Imports, nil,
		"additional annotation imports as alias=namespace")
	flags.StringSliceVar(&c.Whitelist, c.Flags.Whitelist, nil,
		fmt.Sprintf("namespaces whose annotations may be constructed (default %v)", DefaultWhitelist))
	flags.BoolVar(&c.NoWhitelist, c.Flags.NoWhitelist, false,
		"allow annotations from any namespace")
	flags.StringVar(&c.Registry, c.Flags.Registry, "",
		fmt.Sprintf("annotation registry file (.yaml, .json, .toml) or %q", RegistryBuiltin))
}

// RegisterCompletions registers shell completions for analyser flags on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	err := cmd.RegisterFlagCompletionFunc(c.Flags.Whitelist,
		cobra.FixedCompletions(DefaultWhitelist, cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Whitelist, err)
	}

	err = cmd.RegisterFlagCompletionFunc(c.Flags.Imports,
		func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveNoFileComp
		})
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Imports, err)
	}

	err = cmd.RegisterFlagCompletionFunc(c.Flags.Registry,
		func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return []string{"yaml", "yml", "json", "toml"}, cobra.ShellCompDirectiveFilterFileExt
		})
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Registry, err)
	}

	return nil
}

// NewDocParser creates the [DocParser] described by c. Names missing from
// the import table are always ignored.
func (c *Config) NewDocParser() (*DocParser, error) {
	opts := []DocParserOption{
		IgnoreNotImported(true),
		WithImports(DefaultImports),
		WithImports(c.Imports),
	}

	switch {
	case c.NoWhitelist:
		opts = append(opts, WithWhitelist(nil))
	case len(c.Whitelist) > 0:
		opts = append(opts, WithWhitelist(c.Whitelist))
	default:
		opts = append(opts, WithWhitelist(DefaultWhitelist))
	}

	switch c.Registry {
	case "":
	case RegistryBuiltin:
		opts = append(opts, WithRegistry(DefaultRegistry()))
	default:
		r, err := LoadRegistry(c.Registry)
		if err != nil {
			return nil, err
		}

		opts = append(opts, WithRegistry(r))
	}

	return NewDocParser(opts...), nil
}

// NewAnalyser creates an [Analyser] using this [Config], reporting
// warnings to logger.
func (c *Config) NewAnalyser(logger *slog.Logger) (*Analyser, error) {
	p, err := c.NewDocParser()
	if err != nil {
		return nil, err
	}

	return New(WithParser(p), WithLogger(logger)), nil
}
