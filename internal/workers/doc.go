/*
Package workers sizes the goroutine pools used by prompt-sorter.

Thumbnail scans run on a small fixed pool (DefaultScanWorkers) so a large
folder never floods the decoder with concurrent full-resolution images:

	pool := workers.ForScan() // 4 unless SCAN_WORKERS is set

Other work scales with GOMAXPROCS, which follows container CPU limits:

	n := workers.ForCPU(8) // one per CPU, at most 8
	n := workers.ForIO(16) // two per CPU, at most 16

SCAN_WORKERS overrides every helper; a value above the caller's limit is
clamped to that limit.
*/
package workers
