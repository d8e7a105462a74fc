// Package indexer scans a folder tree and loads a thumbnail for every
// supported image into a media.ThumbnailCache.
//
// A scan moves through Idle, Scanning and then one of Completed, Stopped
// or Failed. Files are enumerated up front so progress has a total, then
// handed to a fixed pool of workers. Events are delivered in the order
// workers finish, which is not the walk order; sort the final path list
// with the catalog when order matters.
//
// A file that cannot be decoded is skipped. Only a missing or unreadable
// root fails the scan, and that failure is reported once as EventError.
package indexer
