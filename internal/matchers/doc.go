// Package matchers provides the relation matchers that declare which change
// parts belong together and which part should lead its group.
//
// Matchers run concurrently, but their results are concatenated in the
// configured priority order, which is the order the ordering engine tries to
// satisfy them in. A matcher that fails or panics contributes nothing.
package matchers
