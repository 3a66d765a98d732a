// Package shape holds the pure table transformations used between a query
// and a figure: bucketing, categorical reordering, pivoting, bounded
// sampling, guarded ratio aggregation and sorting.
//
// Every function returns a new table and leaves its input untouched.
// Failures are core.KindShape errors.
package shape
