package profile_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/docannot/profile"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := profile.NewConfig()

	// All profile paths should be empty (disabled).
	assert.Empty(t, cfg.CPU)
	assert.Empty(t, cfg.Heap)
	assert.Empty(t, cfg.Block)
	assert.Empty(t, cfg.Mutex)
	assert.False(t, cfg.Enabled())
}

func TestConfig_RegisterFlags(t *testing.T) {
	t.Parallel()

	cfg := profile.NewConfig()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)

	cfg.RegisterFlags(flags)

	err := flags.Parse([]string{
		"--cpu-profile=cpu.prof",
		"--heap-profile=heap.prof",
		"--block-profile=block.prof",
		"--mutex-profile=mutex.prof",
	})
	require.NoError(t, err)

	assert.Equal(t, "cpu.prof", cfg.CPU)
	assert.Equal(t, "heap.prof", cfg.Heap)
	assert.Equal(t, "block.prof", cfg.Block)
	assert.Equal(t, "mutex.prof", cfg.Mutex)
	assert.True(t, cfg.Enabled())
}

func TestRegisterCompletions(t *testing.T) {
	t.Parallel()

	cfg := profile.NewConfig()

	cmd := &cobra.Command{Use: "test"}
	cfg.RegisterFlags(cmd.Flags())

	err := cfg.RegisterCompletions(cmd)
	require.NoError(t, err)

	for _, flag := range []string{"cpu-profile", "heap-profile", "block-profile", "mutex-profile"} {
		completionFn, ok := cmd.GetFlagCompletionFunc(flag)
		require.True(t, ok, flag)

		values, directive := completionFn(cmd, nil, "")
		assert.Equal(t, cobra.ShellCompDirectiveFilterFileExt, directive)
		assert.Equal(t, []string{"prof"}, values)
	}
}

// Profiling state is process-wide, so these subtests run sequentially.
func TestProfilerRun(t *testing.T) {
	t.Parallel()

	t.Run("writes enabled profiles", func(t *testing.T) {
		dir := t.TempDir()

		cfg := profile.NewConfig()
		cfg.Heap = filepath.Join(dir, "heap.prof")
		cfg.Block = filepath.Join(dir, "block.prof")

		ran := false

		err := cfg.NewProfiler().Run(func() error {
			ran = true

			return nil
		})
		require.NoError(t, err)
		assert.True(t, ran)

		for _, path := range []string{cfg.Heap, cfg.Block} {
			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		}

		assert.NoFileExists(t, filepath.Join(dir, "mutex.prof"))
	})

	t.Run("work error is returned", func(t *testing.T) {
		cfg := profile.NewConfig()
		cfg.Heap = filepath.Join(t.TempDir(), "heap.prof")

		errWork := errors.New("work failed")

		err := cfg.NewProfiler().Run(func() error {
			return errWork
		})
		require.ErrorIs(t, err, errWork)
		assert.FileExists(t, cfg.Heap)
	})

	t.Run("unwritable path", func(t *testing.T) {
		cfg := profile.NewConfig()
		cfg.CPU = filepath.Join(t.TempDir(), "missing", "cpu.prof")

		called := false

		err := cfg.NewProfiler().Run(func() error {
			called = true

			return nil
		})
		require.Error(t, err)
		assert.False(t, called)
	})
}
