// SPDX-License-Identifier: MIT

// Package config provides configuration management for geoanonymizer.
//
// Configuration is resolved in precedence order: built-in defaults, then a
// strict YAML file, then GEOANON_* environment variables. The resolved
// AppConfig is validated before use.
package config
