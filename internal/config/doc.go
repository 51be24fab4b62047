// Package config defines the stmkit configuration and its defaults.
package config
