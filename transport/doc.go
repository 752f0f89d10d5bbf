// Package transport spawns the agent CLI as a subprocess under an
// environment built by [agentenv.BuildEnv] and exposes it as an
// [agentenv.Stream].
//
// [Start] resolves the binary, optionally checks its version, builds a fresh
// environment from a [agentenv.Config] and an ambient [agentenv.Snapshot],
// and starts the subprocess with stdin, stdout, and stderr pipes. The
// subprocess never inherits the parent environment: exec.Cmd.Env is always
// set to the built environment.
//
// # Lifecycle
//
// [Process.Close] runs the graceful path: end-of-input is signaled once and
// the close waits up to the resolved stream close timeout. A timeout or a
// canceled context escalates to [Process.Stop], which sends SIGTERM and then
// SIGKILL after the grace period.
//
// The subprocess runs in its own process group and both signals go to the
// whole group. Output pipes still held open by a descendant after the
// subprocess exits are closed once the grace period elapses, or at once
// during Stop, so the lifecycle never waits on a process it did not start.
//
// # Platform Support
//
// [Start] and [Process] use Unix signals and are not available on Windows.
// Options and version parsing are available on all platforms.
//
// # Consumer Obligations
//
// Callers must either drain [Process.Lines] to completion or call
// [Process.Stop] (or [Process.Close]) to release subprocess resources.
package transport
