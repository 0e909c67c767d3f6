// Package launchd manages macOS launchd job definitions and their runtime
// state by driving launchctl and reading/writing property-list job files.
//
// The core functionality is split into three pieces. ClientLaunchctl runs
// launchctl and classifies its diagnostic text into success, benign no-op or
// fatal outcomes:
//
//	client := launchd.NewClientLaunchctl(launchd.WithClientTimeout(5 * time.Second))
//	loaded, err := client.List(ctx)
//
// The codec parses XML or binary plists into a JobDefinition and writes
// them back, omitting every field that was absent:
//
//	def, err := launchd.ParseFile("/Users/me/Library/LaunchAgents/com.example.plist")
//	err = launchd.WriteFile(path, def)
//
// # Manager
//
// Manager merges both into presented job state and only lets user agents
// be started, stopped, restarted or kickstarted:
//
//	mgr, err := launchd.NewManager()
//	jobs, err := mgr.ListJobs(ctx)
//	err = mgr.StartJob(ctx, jobs[0].PlistPath)
//
// Start and restart unload the job first (ignoring that error) and then
// bootstrap it, so repeated calls are safe without tracking prior state.
//
// # Design
//
//   - No state is kept between calls; every query re-reads disk and launchctl
//   - Substring classification lives in one table (DefaultRules)
//   - Manager depends on the Controller interface, not on launchctl itself
//   - Every blocking call takes a context
package launchd
