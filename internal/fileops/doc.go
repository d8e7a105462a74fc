// Package fileops moves, copies and trashes image files in batches.
//
// Every batch call processes all of its inputs: a missing source or a
// failed rename is recorded as a message in the result and the next file
// is tried. Only a destination that is not a directory fails the call.
//
// Move never overwrites; a name already taken in the destination becomes
// name_1.ext, name_2.ext and so on. Copy prefixes names with a three digit
// sequence number that continues from the highest prefix already present,
// so repeated copies into one folder keep extending the sequence.
//
// FindEmptySubfolders is read-only. Removing what it finds is a separate,
// explicit Trash call.
package fileops
