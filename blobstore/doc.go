// Package blobstore abstracts where exported artifacts (grid snapshots,
// sample tables) live: in memory for tests, on the local file system, or in
// object storage.
package blobstore
