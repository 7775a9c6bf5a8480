// Package config loads the bridge configuration from YAML.
//
// Values of the form ${VAR} are expanded from the environment before parsing.
// LoadAndValidate applies defaults and rejects incomplete configurations.
package config
