// Package config loads hiveform-gen settings.
//
// Settings come from, in increasing precedence: built-in defaults, a
// hiveform.yaml file, a .env file, HIVEFORM_* environment variables, and
// command-line flags (applied by the caller).
package config
