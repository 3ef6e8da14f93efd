// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride allows tests to override the config directory.
// os.UserHomeDir() doesn't reliably respect the HOME environment variable
// on all platforms, so tests set this instead.
var configDirOverride string

// configFileOverride holds a custom config file path (--config flag).
var configFileOverride string

// SetConfigDirOverride sets a custom config directory path.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// SetConfigFilePathOverride makes Load use the given file exclusively.
func SetConfigFilePathOverride(path string) {
	configFileOverride = path
}

// Reset clears overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
	configFileOverride = ""
}
