// Package resources owns the daemon's process-wide resource lifecycle.
//
// A single Manager instance brings every subsystem up in a fixed order,
// tears the started ones down in exactly reverse order, and layers the
// long-running mode toggles (panel lock, display keep-awake, CPU governor)
// on top of the running set. Bring-up is driven by a declarative step
// list: each step names itself, starts one subsystem, knows how to stop
// it, and declares whether its failure aborts the sequence.
package resources
