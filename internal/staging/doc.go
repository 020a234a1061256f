// Package staging copies scanned documents into a per-vendor tree named after
// the extracted flavor, and prunes that tree.
package staging
