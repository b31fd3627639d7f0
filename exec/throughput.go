package exec

import (
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// throughputStat accumulates byte counts seen through a Pipe's write end,
// so periodic log lines can report a running transfer rate. It's an
// io.Writer so it can sit in an io.MultiWriter alongside the pipe itself.
type throughputStat struct {
	mu         sync.Mutex
	totalBytes int64
	dataPoints []dataPoint
	startedAt  time.Time
}

type dataPoint struct {
	bytes     int64
	timestamp time.Time
}

func newThroughputStat() *throughputStat {
	return &throughputStat{startedAt: time.Now()}
}

func (s *throughputStat) Write(bs []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(bs))
	s.totalBytes += n
	s.dataPoints = append(s.dataPoints, dataPoint{bytes: n, timestamp: time.Now()})

	cutoff := time.Now().Add(-time.Hour)
	i := 0
	for _, p := range s.dataPoints {
		if p.timestamp.After(cutoff) {
			break
		}
		i++
	}
	s.dataPoints = s.dataPoints[i:]

	return len(bs), nil
}

// Summary renders the total transferred and the average rate since the
// pipe started.
func (s *throughputStat) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := time.Since(s.startedAt).Seconds()
	if elapsed < 1 {
		elapsed = 1
	}

	return humanize.Bytes(uint64(s.totalBytes)) + " total, " +
		humanize.Bytes(uint64(float64(s.totalBytes)/elapsed)) + "/sec"
}
