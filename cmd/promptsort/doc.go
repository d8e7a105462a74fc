// Command promptsort browses AI-generated images by the prompts embedded
// in them and files them into folders.
//
// Usage:
//
//	promptsort <command> [flags] [args]
//
// Commands:
//
//	scan        Load thumbnails for every supported image under a folder
//	            and print the paths in the configured sort order.
//
//	filter      Scan a folder and print the images whose metadata contains
//	            the comma-separated terms. -and requires every term.
//
//	show        Print the positive prompt, negative prompt and generation
//	            settings of images. -json prints one object per line.
//
//	move        Move images into a folder. Name collisions are resolved by
//	            appending _1, _2 and so on.
//
//	copy        Copy images into a folder in argument order, prefixing each
//	            name with the next free three-digit sequence number.
//
//	empty-dirs  List empty subfolders. -trash moves them to the user's
//	            trash after confirmation; nothing is deleted permanently.
//
//	export      Write the positive prompts of images as a plain text list
//	            with an optional "# comment" line above each.
//
//	thumb       Render one thumbnail through the thumbnail cache.
//
// Every command accepts -v for debug logging. Progress is drawn on stderr
// only when it is a terminal; results go to stdout.
//
// Environment:
//
//	THUMBNAIL_SIZE  Longest thumbnail side in pixels (default: 200)
//	CACHE_SIZE      Thumbnail cache capacity (default: 1000)
//	CACHE_POLICY    fifo or lru (default: fifo)
//	SCAN_WORKERS    Concurrent thumbnail decodes (default: 4)
//	SORT_ORDER      filename_asc, filename_desc, date_asc, date_desc
//	DECODE_TIMEOUT  Per-image decode limit such as 5s (default: none)
//	SKIP_HIDDEN     Ignore dot files and folders (default: true)
//	VIPS_ENABLED    Use libvips for decoding (default: false)
//	METADATA_DB     SQLite file caching extracted metadata (default: off)
//	METRICS_ADDR    Serve /metrics and /health on this address (default: off)
//	MEMORY_LIMIT    Memory available to the process, e.g. 2GiB
//	LOG_LEVEL       debug, info, warn or error
package main
