// Package config loads operator settings for the agentenv command.
//
// Settings come from four layers, later layers overriding non-zero fields
// of earlier ones:
//
//  1. compiled-in defaults;
//  2. an optional YAML file (AGENTENV_CONFIG or --config);
//  3. AGENTENV_* variables from the ambient snapshot;
//  4. command line flags.
//
// The env layer reads the snapshot handed to Load, never the live process
// environment. The result converts to agentenv.ConfigOption values with
// Settings.ConfigOptions.
package config
