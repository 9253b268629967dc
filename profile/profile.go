package profile

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

// Profiler records the profiles selected by its [Config] around a unit of
// work.
//
// Create instances with [Config.NewProfiler].
type Profiler struct {
	cpuFile *os.File
	Config
}

// Run calls fn between [Profiler.Start] and [Profiler.Stop]. Profiles are
// written even when fn fails; fn's error takes precedence.
func (p *Profiler) Run(fn func() error) error {
	err := p.Start()
	if err != nil {
		return err
	}

	runErr := fn()
	stopErr := p.Stop()

	return errors.Join(runErr, stopErr)
}

// Start enables block and mutex sampling when requested and begins CPU
// profiling.
func (p *Profiler) Start() error {
	if p.Block != "" {
		runtime.SetBlockProfileRate(1)
	}

	if p.Mutex != "" {
		runtime.SetMutexProfileFraction(1)
	}

	if p.CPU == "" {
		return nil
	}

	f, err := os.Create(p.CPU) //nolint:gosec // Profile path from CLI flag is expected.
	if err != nil {
		return fmt.Errorf("create cpu profile: %w", err)
	}

	err = pprof.StartCPUProfile(f)
	if err != nil {
		return errors.Join(fmt.Errorf("start cpu profile: %w", err), f.Close())
	}

	p.cpuFile = f

	return nil
}

// Stop ends CPU profiling and writes the snapshot profiles.
func (p *Profiler) Stop() error {
	if p.cpuFile != nil {
		pprof.StopCPUProfile()

		err := p.cpuFile.Close()
		p.cpuFile = nil

		if err != nil {
			return fmt.Errorf("close cpu profile: %w", err)
		}
	}

	snapshots := []struct {
		name string
		path string
	}{
		{"heap", p.Heap},
		{"block", p.Block},
		{"mutex", p.Mutex},
	}

	for _, s := range snapshots {
		if s.path == "" {
			continue
		}

		err := writeProfile(s.name, s.path)
		if err != nil {
			return err
		}
	}

	return nil
}

func writeProfile(name, path string) error {
	prof := pprof.Lookup(name)
	if prof == nil {
		return fmt.Errorf("unknown profile: %s", name)
	}

	if name == "heap" {
		runtime.GC()
	}

	f, err := os.Create(path) //nolint:gosec // Profile path from CLI flag is expected.
	if err != nil {
		return fmt.Errorf("create %s profile: %w", name, err)
	}

	err = prof.WriteTo(f, 0)
	if err != nil {
		return errors.Join(fmt.Errorf("write %s profile: %w", name, err), f.Close())
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("write %s profile: %w", name, err)
	}

	return nil
}
