// Package shape post-processes fetched records before they are returned.
//
// A Shaper applies an ordered list of Transforms to each item of a page.
// Items usually come straight out of a shared cached snapshot, so every
// Record transform is copy-on-write: the maps along the edited path are
// cloned and everything else is shared with the input. Inputs are never
// modified.
//
// Record paths are dot-separated keys, e.g. "attributes.error.stack".
package shape
