// Package media turns image files into in-memory thumbnails and keeps a
// bounded set of them for the gallery.
//
// A Decoder loads a file and scales it to fit a square box, enlarging
// sources smaller than the box. NewDecoder prefers libvips when InitVips has been called and
// falls back to the pure-Go imaging path otherwise.
//
// ThumbnailCache maps (path, size) to a Bitmap. By default it evicts in
// insertion order: a lookup never refreshes an entry, so the oldest
// inserted thumbnail is always the next to go. PolicyLRU switches to
// least-recently-used eviction.
//
//	cache, err := media.NewThumbnailCache(media.DefaultCacheOptions())
//	if err != nil {
//		return err
//	}
//	if bmp := cache.Get(path, 200); bmp != nil {
//		draw(bmp)
//	}
package media
