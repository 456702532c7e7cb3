// Package ordering turns change parts and the match sets reported by
// relation matchers into a review tour.
//
// [Order] applies match sets to a bundle tree in priority order. Sets that
// conflict are retried with already satisfied sets folded in, which lets a
// constraint hold transitively through a larger group. The resulting tree is
// normalized with the caller's tie-break order, position requests are applied
// on a position tree, and [BuildHierarchy] nests the final order into named
// groups.
//
// Runs are cooperative: a [Control] is polled between steps, and a canceled
// run returns [ErrCanceled] without a partial result.
package ordering
