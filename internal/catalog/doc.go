// Package catalog keeps the list of scanned images and the filtered,
// sorted subset the user is looking at, plus an ordered selection used
// when copying.
//
// Filtering re-reads metadata for every image on each call; nothing is
// cached here. Wrap the extractor with metadata.NewCachedExtractor when a
// persistent cache is wanted.
package catalog
