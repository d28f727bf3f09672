// Package main hosts the sensorlog CLI entrypoint and command graph.
//
// The root command runs one poll cycle for a configuration file; the
// subcommands inspect the snapshot, the archive, or a log's tail, and
// scaffold configuration. Heavy lifting lives in the internal packages.
package main
