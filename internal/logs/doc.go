// Package logs finds and tails per-run log files.
//
// Every run writes sdsscan-<run id>.log into the log directory. Latest picks
// the most recent one, and Tail reads its last lines or, in follow mode, waits
// for new lines until the context is cancelled.
package logs
