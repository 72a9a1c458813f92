// Command hopper is the CLI front end for the hopper daemon. It talks to
// the daemon over a unix socket and covers lifecycle control, status
// inspection, output-path previews, title-catalog queries, log tailing,
// and runtime preferences.
package main
