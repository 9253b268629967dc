package profile

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Flags holds CLI flag names for profiling configuration, allowing callers to
// customize flag names while keeping sensible defaults via [NewConfig].
type Flags struct {
	CPU   string
	Heap  string
	Block string
	Mutex string
}

// NewConfig creates a new [Config] embedding these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{
		Flags: f,
	}
}

// Config holds the output paths of the profiles to record while scanning.
// An empty path disables that profile, so a zero Config profiles nothing.
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags]. Use [Config.NewProfiler] to create a [Profiler].
type Config struct {
	Flags Flags

	CPU   string
	Heap  string
	Block string
	Mutex string
}

// NewConfig creates a new [Config] with default flag names and all profiles
// disabled.
func NewConfig() *Config {
	f := Flags{
		CPU:   "cpu-profile",
		Heap:  "heap-profile",
		Block: "block-profile",
		Mutex: "mutex-profile",
	}

	return f.NewConfig()
}

// RegisterFlags adds profiling flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.CPU, c.Flags.CPU, "", "write a CPU profile of the scan to file")
	flags.StringVar(&c.Heap, c.Flags.Heap, "", "write a heap profile to file after the scan")
	flags.StringVar(&c.Block, c.Flags.Block, "", "write a profile of blocking between scan workers to file")
	flags.StringVar(&c.Mutex, c.Flags.Mutex, "", "write a mutex contention profile to file")
}

// RegisterCompletions registers shell completions for profile flags on cmd.
// Every flag takes an output path ending in ".prof".
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	profFiles := func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"prof"}, cobra.ShellCompDirectiveFilterFileExt
	}

	for _, name := range []string{c.Flags.CPU, c.Flags.Heap, c.Flags.Block, c.Flags.Mutex} {
		err := cmd.RegisterFlagCompletionFunc(name, profFiles)
		if err != nil {
			return fmt.Errorf("registering %s completion: %w", name, err)
		}
	}

	return nil
}

// Enabled reports whether any profile is requested.
func (c *Config) Enabled() bool {
	return c.CPU != "" || c.Heap != "" || c.Block != "" || c.Mutex != ""
}

// NewProfiler creates a new [Profiler] using this [Config].
func (c *Config) NewProfiler() *Profiler {
	return &Profiler{
		Config: *c,
	}
}
