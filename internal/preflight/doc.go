// Package preflight provides readiness checks for the filesystem paths,
// external binaries and store that a scan depends on.
//
// The CLI "sdsscan check" command prints every result; "sdsscan run" calls
// RunAll first and refuses to start when a required check fails.
package preflight
