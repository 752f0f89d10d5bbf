// Package agentenv configures and isolates the environment of an agent CLI
// subprocess driven over a streaming stdin/stdout protocol.
//
// It resolves configuration values through a fixed precedence
// (per-instance overrides, then an ambient snapshot, then a compiled-in
// default), builds a fresh environment for every subprocess launch without
// touching the host process environment, and bounds the graceful close of
// an open stream with a resolved timeout.
//
// # Core Types
//
//   - [Config]: immutable per-client configuration built with [NewConfig]
//   - [Snapshot]: read-only copy of an ambient environment
//   - [Environment]: the environment handed to one subprocess, from [BuildEnv]
//   - [ShutdownController]: bounded close of a [Stream]
//
// # Resolution
//
// [Resolve] and [Lookup] check membership, not truthiness: an override set
// to "" wins over any ambient value. The ambient environment is always an
// explicit [Source] argument, never read implicitly.
//
// # Quick Start
//
//	cfg := agentenv.NewConfig(
//	    agentenv.WithAPIKey("sk-test"),
//	    agentenv.WithIsolated(true),
//	)
//	env := agentenv.BuildEnv(cfg, agentenv.CurrentSnapshot())
//	cmd := exec.Command("claude", "-p", "--input-format", "stream-json")
//	cmd.Env = env.Environ()
package agentenv
