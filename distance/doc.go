// Package distance provides the distance metrics used for nearness search
// and stratification.
package distance
