// Package titledb persists the title catalog: the mapping from cartridge
// title IDs to names, regions, and versions. The daemon opens it during
// bring-up and the CLI renders it; dump naming consults it so output files
// carry human-readable names.
package titledb
