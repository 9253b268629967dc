// Package profile records runtime profiles of a command run.
//
// It supports CPU, heap, block and mutex profiles, the ones that show where
// a concurrent scan spends its time and where its workers wait. Use
// [Config.RegisterFlags] to add CLI flags and [Profiler.Run] to wrap the work:
//
//	cfg := profile.NewConfig()
//	cfg.RegisterFlags(rootCmd.Flags())
//
//	err := cfg.NewProfiler().Run(func() error {
//	    return scan(ctx, paths)
//	})
//
// Users can then enable profiling via flags like --cpu-profile=cpu.prof.
package profile
