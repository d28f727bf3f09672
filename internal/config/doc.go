// Package config loads, normalizes, and validates sensorlog configuration.
//
// A configuration file names the full log and snapshot locations, the number
// of rows kept in the snapshot, and the sensors to poll. JSON is the primary
// format (comments and trailing commas are tolerated); files ending in .toml
// or .yaml/.yml are decoded with the same keys. Every relative path, including
// the configuration file itself, is resolved against one base directory.
//
// Required keys are checked explicitly so a missing field fails at load time
// with the field's name rather than deep inside a run.
package config
