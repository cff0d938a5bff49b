// Package gridio persists grids and sample sets.
//
// The snapshot format is self-describing: a fixed magic, a codec-encoded
// header naming the codec and compression in use, then one compressed
// payload per band. Readers refuse snapshots written with a codec or
// compression they do not know rather than misparse them.
package gridio
