/*
Package filesystem wraps the os calls used on image folders with retry logic
for stale file handle errors (ESTALE), which show up when a folder lives on
an NFS or SMB share that is remounted while the program runs.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())

Only ESTALE is retried, with exponential backoff (50ms, 100ms, 200ms by
default, capped at MaxBackoff). Any other error is returned immediately.

Metrics are reported through an Observer installed with SetObserver; with
no observer installed nothing is recorded.
*/
package filesystem
