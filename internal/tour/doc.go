// Package tour turns a diff into a review tour.
//
// [Run] parses the diff into fragments, partitions them into change parts,
// runs the configured relation matchers and orders the parts so that
// related parts are adjacent. The resulting [Report] lists the stops in
// tour order, the nested tour tree and statistics about which relations
// could be honored. Reports can be cached by the hash of the configuration
// and the diff.
package tour
