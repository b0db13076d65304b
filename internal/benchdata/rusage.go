package benchdata

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/jayjanssen/motor-monitor-bench/internal/schema"
)

// Collect samples this process's resource usage into a BenchmarkData
// record: user/kernel time (self and children, microseconds) from
// getrusage, and peak RSS/virtual-memory high-water marks. No example in
// the retrieved pack wires a resource-accounting library for this --
// getrusage and /proc/self/status are OS-syscall surfaces, not a domain
// concern any ecosystem package would plausibly wrap better than the
// standard library already does.
func Collect(id uint32, kind schema.BenchmarkKind) (schema.BenchmarkData, error) {
	var self, children syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &self); err != nil {
		return schema.BenchmarkData{}, err
	}
	if err := syscall.Getrusage(syscall.RUSAGE_CHILDREN, &children); err != nil {
		return schema.BenchmarkData{}, err
	}

	peakVMem, err := peakVirtualMemory()
	if err != nil {
		peakVMem = 0
	}

	return schema.BenchmarkData{
		ID:                 id,
		UserTime:           microseconds(self.Utime),
		KernelTime:         microseconds(self.Stime),
		ChildrenUserTime:   int64(microseconds(children.Utime)),
		ChildrenKernelTime: int64(microseconds(children.Stime)),
		PeakRSS:            uint64(self.Maxrss) * 1024,
		PeakVMem:           peakVMem,
		Kind:               kind,
	}, nil
}

func microseconds(tv syscall.Timeval) uint64 {
	return uint64(tv.Sec)*1_000_000 + uint64(tv.Usec)
}

// peakVirtualMemory reads VmPeak out of /proc/self/status; getrusage has
// no virtual-memory high-water-mark field on Linux.
func peakVirtualMemory() (uint64, error) {
	f, err := os.Open("/proc/self/status")
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "VmPeak:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, nil
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, err
		}
		return kb * 1024, nil
	}
	return 0, scanner.Err()
}
