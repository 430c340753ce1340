// Package naming is the bidirectional codec between (partIndex, totalParts)
// and a part filename suffix, driven by a user pattern string.
//
// The pattern embeds two placeholder families anywhere in a literal string:
// '##' stands for the total part count and '#' for the current part index.
// Both are zero-padded to the width of the total once the total reaches two
// digits. Because '##' is a superset string of '#', it is always substituted
// first.
//
// Recognition is a search, not a stored fact: Recognize tries every
// plausible total in a bounded range and accepts the first one whose
// generated suffix matches the name. The resolve package short-circuits this
// with the part manifest when one exists.
package naming
