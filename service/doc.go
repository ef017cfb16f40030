// Package service is the single entry point into the log. It
// coordinates the WAL and the append event stream, decoupled from
// transports like gRPC.
package service
