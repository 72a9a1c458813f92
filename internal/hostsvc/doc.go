// Package hostsvc brokers access to host operating system facilities and
// carries the shared service error taxonomy. The daemon starts one Broker
// during resource bring-up; subsystems consult it for facility availability
// and process queries instead of probing the host themselves.
package hostsvc
