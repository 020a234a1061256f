// Package deps reports whether the external binaries sdsscan shells out to
// (pdftotext) are installed.
package deps
