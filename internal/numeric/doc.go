// Package numeric provides the small linear-algebra kernel shared by the
// electrical and mechanical solvers: a dense matrix type, Gaussian
// elimination with partial pivoting, and 3D vector helpers.
//
// The solvers assemble dense systems keyed by explicit index tables
// (node or degree-of-freedom arenas), so the kernel deliberately stays
// dense and direct. Singular systems are reported as
// [ErrSingularSystem] rather than silently skipped.
package numeric
