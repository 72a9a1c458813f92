// Package platform inspects and steers the appliance host: board
// identification and development-unit detection over sysfs, firmware flavor
// probing, run-mode classification, CPU governor control, display idle
// suppression, the session capture journal, and the udev power monitor.
//
// Inspection roots come from the configuration so tests and containerized
// runs can point at fixture trees instead of the live /sys and /proc.
package platform
