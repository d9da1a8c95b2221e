// Package logs reads the per-run JSON log files bookvoice writes into the
// log directory.
//
// Latest finds the newest run log and Tail returns its last lines, or waits
// for new ones in follow mode. Memory stays bounded by the requested line
// count regardless of file size.
package logs
