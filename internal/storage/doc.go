// Package storage manages the output volume: the mounted filesystem that
// receives dumps, staging data, and reports. It wraps the volume handle
// acquired during bring-up, filesystem statistics and sync, the fixed
// output directory set, and split outputs for FAT-bounded targets.
package storage
