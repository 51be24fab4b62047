// Package confloader loads stmkit configuration with koanf.
//
// Sources are layered over the defaults already held by the target
// struct, later ones overriding earlier ones:
//
//  1. The YAML file (WithConfigFile)
//  2. Environment variables with the STMKIT_ prefix
//  3. Overrides such as command-line flags (WithOverrides)
//
// STMKIT_STM_MAX_ATTEMPTS maps to the key stm.max_attempts: the first
// underscore after the prefix separates the section from the key.
//
// Watcher reports changes to the config file so callers can Reload.
package confloader
