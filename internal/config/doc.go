// Package config loads the dataset-tools YAML configuration.
//
// Every tool has its own section. A missing file is not an error: Default
// documents the values used when nothing is configured, and command line flags
// override whatever the file sets. Values are passed explicitly into the
// library packages; nothing here is global.
//
// The file is looked up in this order:
//  1. the path given with --config
//  2. dataset-tools.yaml in the current directory
//  3. dataset-tools/config.yaml under the XDG config home
package config
