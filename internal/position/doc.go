// Package position refines the order of a finished bundle tree so that
// requested items lead, follow or come second within their match sets.
//
// A position tree starts with the shape of a bundle tree. Each accepted
// request is recorded as a pin; a new request is realized by permuting
// reorderable children and mirroring fixed nodes inside the smallest subtree
// that holds the match set, and it is only accepted when every earlier pin
// still holds in the resulting order.
package position
