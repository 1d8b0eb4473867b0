// Package lsq solves bound-constrained nonlinear least-squares problems.
//
// [Solve] minimizes
//
//	cost(p) = 1/2 * sum(((model(p)_i - y_i) / sigma_i)^2)
//
// subject to lower <= p <= upper with a projected Levenberg-Marquardt
// iteration. Jacobians are forward differences that step inward at the
// bounds. The returned covariance is the pseudo-inverse of J^T J of the
// weighted Jacobian at the solution, so sigma is treated as an absolute
// uncertainty and the square roots of its diagonal are one-sigma errors.
package lsq
