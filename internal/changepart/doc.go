// Package changepart groups raw diff fragments into change parts, the
// smallest units a reviewer looks at.
//
// Fragments of one file are merged while no structural boundary lies between
// them. Boundaries come from a lightweight scanner that tracks brace nesting
// and statement terminators and skips literals and comments, so a change
// spread over one method body stays one part.
package changepart
