// Package vendors holds the vendor rule table and the per-vendor flavor name
// extractors.
//
// Each vendor code maps to exactly one Rule. A rule carries its extraction
// function and any normalization passes, so adding a vendor means adding one
// table entry. Extraction is pure: identical path and text always produce the
// same Extraction, and the returned name is never empty.
package vendors
