// Package command defines the stmkit commands.
//
// Every command builds its own STM runtime and agent dispatcher from the
// loaded configuration, runs a workload against them and renders a
// summary in the format chosen with --output.
package command
