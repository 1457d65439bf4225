package parallel

import (
	"os"

	"golang.org/x/sys/unix"
)

// splitPoints scans a memory-mapped file for n-1 interior byte offsets
// that each land on a record boundary, carving it into n roughly equal
// shards (spec §4.I). csv selects the quote-aware forward walk used
// for CSV/TSV input; otherwise a tentative offset walks forward to the
// next rsByte, the single-byte-RS case the driver restricts itself to.
func splitPoints(data []byte, n int, csv bool, rsByte byte) []int64 {
	size := int64(len(data))
	if n <= 1 || size == 0 {
		return nil
	}
	points := make([]int64, 0, n-1)
	for i := 1; i < n; i++ {
		tentative := size * int64(i) / int64(n)
		var split int64
		if csv {
			split = walkOutOfQuotes(data, tentative)
		} else {
			split = walkToByte(data, tentative, rsByte)
		}
		if split <= 0 || split >= size {
			continue
		}
		if len(points) > 0 && points[len(points)-1] >= split {
			continue
		}
		points = append(points, split)
	}
	return points
}

// walkToByte scans forward from pos for the next rsByte and returns the
// offset just past it, the start of the following record. It returns
// the data length if rsByte never recurs, folding the tail into the
// previous shard.
func walkToByte(data []byte, pos int64, rsByte byte) int64 {
	for i := pos; i < int64(len(data)); i++ {
		if data[i] == rsByte {
			return i + 1
		}
	}
	return int64(len(data))
}

// walkOutOfQuotes finds the nearest safe CSV record boundary at or
// after pos. It first recovers the quote parity of the tentative split
// point by rescanning back to the start of the line it falls in, then
// advances forward until a newline is seen outside any quoted field.
// Worst case this walks the length of the single CSV record the
// tentative offset landed inside (spec §9's documented parallelism
// walk bound), not the whole shard.
func walkOutOfQuotes(data []byte, pos int64) int64 {
	lineStart := pos
	for lineStart > 0 && data[lineStart-1] != '\n' {
		lineStart--
	}
	inQuotes := false
	for i := lineStart; i < pos; i++ {
		if data[i] == '"' {
			inQuotes = !inQuotes
		}
	}
	for i := pos; i < int64(len(data)); i++ {
		switch data[i] {
		case '"':
			inQuotes = !inQuotes
		case '\n':
			if !inQuotes {
				return i + 1
			}
		}
	}
	return int64(len(data))
}

// mmapFile memory-maps f read-only for split-point scanning (the
// Domain Stack's mmap fast path): the driver never buffers the whole
// file to find shard boundaries, it walks the kernel-backed mapping
// directly via golang.org/x/sys/unix. A zero-length file maps to a nil
// slice rather than erroring, since unix.Mmap rejects a zero length.
func mmapFile(f *os.File) ([]byte, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return nil, nil
	}
	return unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_SHARED)
}

func munmapFile(data []byte) error {
	if data == nil {
		return nil
	}
	return unix.Munmap(data)
}
