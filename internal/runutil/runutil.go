// internal/runutil/runutil.go
package runutil

import (
	"fmt"
	"runtime"

	"layoutrefine/internal/cache"
)

// ResolveThreads returns the number of refiner workers for nFiles inputs.
// threads <= 0 means all CPUs. Workers beyond the number of files would
// sit idle, so the count is capped with a warning when set explicitly.
func ResolveThreads(threads, nFiles int) (int, []string) {
	var warns []string
	thr := threads
	if thr <= 0 {
		thr = runtime.NumCPU()
	}
	if nFiles > 0 && thr > nFiles {
		if threads > 0 {
			warns = append(warns, fmt.Sprintf("--threads %d exceeds the %d delta file(s); using %d", threads, nFiles, nFiles))
		}
		thr = nFiles
	}
	return thr, warns
}

// CacheRecords is the number of records one refiner may hold for a window
// size: the bound on memory per worker.
func CacheRecords(windowSize int) int64 {
	return int64(windowSize) * cache.CapacityFactor
}

// CheckMemory warns when threads*cache capacity passes limit records.
func CheckMemory(threads, windowSize int, limit int64) []string {
	if total := int64(threads) * CacheRecords(windowSize); limit > 0 && total > limit {
		return []string{fmt.Sprintf("%d workers x window %d may buffer up to %d records", threads, windowSize, total)}
	}
	return nil
}
