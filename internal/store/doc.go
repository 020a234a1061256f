// Package store defines the persistence contract for flavors, ingredients,
// categories, and flavor/ingredient associations.
//
// Implementations live in subpackages: sqlite (default, embedded), postgres
// (shared canonical database), and memstore (tests). Callers depend on the
// Repository interface only; the orchestrator owns opening and closing.
package store
