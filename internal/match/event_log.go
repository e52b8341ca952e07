package match

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	eventBufferSize    = 1024 // circular buffer slots
	maxEventsPerSec    = 5000 // global rate limit
	batchFlushSize     = 64   // events per batch write
	batchFlushInterval = 100 * time.Millisecond
)

// EventLog is a bounded, rate-limited audit trail of match and
// tournament events, written asynchronously as newline-delimited JSON.
// Emit never blocks the tick path: under pressure the oldest entries
// are dropped and counted instead.
type EventLog struct {
	// Circular buffer; writeHead/readHead are atomics so Emit stays
	// lock-free on the producer side.
	buffer    [eventBufferSize]Event
	writeHead uint64
	readHead  uint64

	limiter *rate.Limiter

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	filePath string
	file     *os.File
	fileMu   sync.Mutex

	droppedCount uint64
	totalCount   uint64
}

// NewEventLog creates a stopped event log; call Start to begin writing.
func NewEventLog() *EventLog {
	return &EventLog{
		limiter:  rate.NewLimiter(maxEventsPerSec, maxEventsPerSec/10),
		stopChan: make(chan struct{}),
	}
}

// Start opens the output file and begins the async writer.
// An empty path keeps the log running without file output.
func (el *EventLog) Start(filePath string) error {
	if el.running.Load() {
		return nil
	}

	el.filePath = filePath
	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		el.file = file
	}

	el.running.Store(true)
	el.writerWg.Add(1)
	go el.writerLoop()
	return nil
}

// Stop flushes remaining events and shuts the writer down.
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()

		el.fileMu.Lock()
		if el.file != nil {
			el.file.Close()
		}
		el.fileMu.Unlock()
	})
}

// Emit records an event. Returns false when the log is stopped, rate
// limited, or shedding load.
func (el *EventLog) Emit(eventType EventType, tick uint64, payload any) bool {
	if !el.running.Load() {
		return false
	}
	if !el.limiter.Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}

	// The counter is post-incremented, so the slot this event owns is
	// head-1; collectBatch reads [readHead, writeHead) with the same
	// zero-based numbering.
	head := atomic.AddUint64(&el.writeHead, 1)
	seq := head - 1
	tail := atomic.LoadUint64(&el.readHead)
	if head-tail > eventBufferSize {
		// Rolling window: drop the oldest entry rather than stalling.
		atomic.AddUint64(&el.readHead, 1)
		atomic.AddUint64(&el.droppedCount, 1)
	}

	el.buffer[seq%eventBufferSize] = Event{
		Sequence:  seq,
		Type:      eventType,
		Tick:      tick,
		Timestamp: time.Now(),
		Payload:   payload,
	}
	atomic.AddUint64(&el.totalCount, 1)
	return true
}

// Stats returns (total emitted, dropped) counters.
func (el *EventLog) Stats() (total, dropped uint64) {
	return atomic.LoadUint64(&el.totalCount), atomic.LoadUint64(&el.droppedCount)
}

// writerLoop batches buffered events to disk.
func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(batchFlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, batchFlushSize)
	for {
		select {
		case <-el.stopChan:
			// Final flush.
			for {
				batch = el.collectBatch(batch[:0])
				if len(batch) == 0 {
					return
				}
				el.flushBatch(batch)
			}
		case <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
		}
	}
}

// collectBatch reads available events from the circular buffer.
func (el *EventLog) collectBatch(batch []Event) []Event {
	head := atomic.LoadUint64(&el.writeHead)
	tail := atomic.LoadUint64(&el.readHead)

	for i := tail; i < head && len(batch) < batchFlushSize; i++ {
		batch = append(batch, el.buffer[i%eventBufferSize])
	}
	if len(batch) > 0 {
		atomic.AddUint64(&el.readHead, uint64(len(batch)))
	}
	return batch
}

// flushBatch appends events to the file, one JSON object per line.
func (el *EventLog) flushBatch(batch []Event) {
	el.fileMu.Lock()
	defer el.fileMu.Unlock()

	if el.file == nil {
		return
	}
	for _, ev := range batch {
		line, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		el.file.Write(append(line, '\n'))
	}
}
