package pipeline

// RunStats tracks aggregate counters across a batch run. Skipped covers
// every no-work classification: generated parts, files under the size
// limit, and sources whose parts already all exist.
type RunStats struct {
	Total        int
	Current      int
	Completed    int
	Skipped      int
	Failed       int
	PartsCreated int
	BytesSplit   int64
}
