package grove

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/olekukonko/tablewriter"

	"github.com/leftmike/grove/encode"
)

// storeStats is collected only when the store is configured with UseStats.
type storeStats struct {
	inserts uint64
	deletes uint64
	updates uint64
	lookups uint64
	hits    uint64
	misses  uint64
	ranges  uint64
}

func (st *storeStats) count(class encode.MessageType) {
	switch class {
	case encode.Insert:
		atomic.AddUint64(&st.inserts, 1)
	case encode.Delete:
		atomic.AddUint64(&st.deletes, 1)
	case encode.Update:
		atomic.AddUint64(&st.updates, 1)
	}
}

func (st *storeStats) lookup(found bool) {
	atomic.AddUint64(&st.lookups, 1)
	if found {
		atomic.AddUint64(&st.hits, 1)
	} else {
		atomic.AddUint64(&st.misses, 1)
	}
}

func (st *storeStats) rangeInit() {
	atomic.AddUint64(&st.ranges, 1)
}

func printStats(w io.Writer, rows [][2]string) {
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"Operation", "Count"})
	for _, row := range rows {
		tbl.Append(row[:])
	}
	tbl.Render()
}

// PrintInsertionStats writes a table of mutation counts to w.
func (s *Store) PrintInsertionStats(w io.Writer) {
	printStats(w, [][2]string{
		{"inserts", fmt.Sprintf("%d", atomic.LoadUint64(&s.stats.inserts))},
		{"deletes", fmt.Sprintf("%d", atomic.LoadUint64(&s.stats.deletes))},
		{"updates", fmt.Sprintf("%d", atomic.LoadUint64(&s.stats.updates))},
	})
}

// PrintLookupStats writes a table of lookup and range counts to w.
func (s *Store) PrintLookupStats(w io.Writer) {
	printStats(w, [][2]string{
		{"lookups", fmt.Sprintf("%d", atomic.LoadUint64(&s.stats.lookups))},
		{"hits", fmt.Sprintf("%d", atomic.LoadUint64(&s.stats.hits))},
		{"misses", fmt.Sprintf("%d", atomic.LoadUint64(&s.stats.misses))},
		{"ranges", fmt.Sprintf("%d", atomic.LoadUint64(&s.stats.ranges))},
	})
}

// ResetStats zeroes all counters.
func (s *Store) ResetStats() {
	atomic.StoreUint64(&s.stats.inserts, 0)
	atomic.StoreUint64(&s.stats.deletes, 0)
	atomic.StoreUint64(&s.stats.updates, 0)
	atomic.StoreUint64(&s.stats.lookups, 0)
	atomic.StoreUint64(&s.stats.hits, 0)
	atomic.StoreUint64(&s.stats.misses, 0)
	atomic.StoreUint64(&s.stats.ranges, 0)
}
