package util

import (
	"runtime/metrics"
)

const heapObjectsMetric = "/memory/classes/heap/objects:bytes"

// GetHeapAllocMB reports live heap object memory in MB. It reads
// runtime/metrics, which unlike ReadMemStats does not stop the world, so
// health checks can poll it freely.
func GetHeapAllocMB() uint64 {
	sample := []metrics.Sample{{Name: heapObjectsMetric}}
	metrics.Read(sample)
	if sample[0].Value.Kind() != metrics.KindUint64 {
		return 0
	}
	return sample[0].Value.Uint64() >> 20
}
