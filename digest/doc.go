// Package digest turns canonical record bytes into identifier strings.
//
// The engine is a pure function around one fixed, versioned hash algorithm.
// The algorithm version is part of every assignment's metadata, so the value
// of this package is not the hashing itself but the versioning discipline:
// any strong digest can back an algorithm version, and identifiers minted
// under different versions never get confused with one another.
package digest
