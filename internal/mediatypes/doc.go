// Package mediatypes holds the dependency-free definitions shared by the
// scanner, metadata parser and catalog: the supported image extensions,
// the container each one maps to, and the display sort keys.
//
//	mediatypes.IsSupportedImage("a/B.PNG")     // true
//	mediatypes.ContainerFor("x.jpeg")          // ContainerJPEG
//	key, err := mediatypes.ParseSortKey("date_desc")
package mediatypes
