// Package accuracy computes agreement statistics between observed and
// imputed values, overall or per group.
package accuracy
