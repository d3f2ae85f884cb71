package filecache

// fileEntry is the in-memory record for one on-disk blob: its path (the
// cache root joined with its subdirectory and file name) and its byte
// length, as last observed.
type fileEntry struct {
	key  uint64
	path string
	size uint64
}
