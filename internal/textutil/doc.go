// Package textutil provides text processing utilities for name normalization,
// similarity ranking and staging slugs.
//
// The primary use cases are:
//   - Title-casing extracted flavor names with the small-word convention
//   - Ranking candidate labels with a bigram (Sørensen–Dice) coefficient
//   - Building staging slugs
//   - Decoding legacy Windows-1252 input
//
// Every function is pure and safe for concurrent use.
package textutil
