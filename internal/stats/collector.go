package stats

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/process"
)

// Sample is one snapshot of process resource usage.
type Sample struct {
	Timestamp    time.Time `json:"timestamp"`
	HeapAlloc    uint64    `json:"heap_alloc"`
	Sys          uint64    `json:"sys"`
	RSS          uint64    `json:"process_rss_bytes"`
	CPUPercent   float64   `json:"cpu_percent"`
	NumGoroutine int       `json:"num_goroutine"`
	NumGC        uint32    `json:"num_gc"`
}

// Report is the collected run profile for an offline sampling job.
type Report struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Samples   []Sample  `json:"samples"`
}

// Collector periodically samples process resource usage.
type Collector struct {
	mu       sync.Mutex
	report   Report
	interval time.Duration
	proc     *process.Process
	stopChan chan struct{}
	doneChan chan struct{}
}

func NewCollector(interval time.Duration) (*Collector, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to get process info: %w", err)
	}

	return &Collector{
		interval: interval,
		proc:     proc,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}, nil
}

func (c *Collector) Start() {
	c.report.StartTime = time.Now()
	go c.collect()
}

func (c *Collector) collect() {
	defer close(c.doneChan)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.sample()
	for {
		select {
		case <-c.stopChan:
			c.sample()
			return
		case <-ticker.C:
			c.sample()
		}
	}
}

func (c *Collector) sample() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	s := Sample{
		Timestamp:    time.Now(),
		HeapAlloc:    memStats.HeapAlloc,
		Sys:          memStats.Sys,
		NumGoroutine: runtime.NumGoroutine(),
		NumGC:        memStats.NumGC,
	}

	if memInfo, err := c.proc.MemoryInfo(); err == nil && memInfo != nil {
		s.RSS = memInfo.RSS
	}
	if cpuPercent, err := c.proc.CPUPercent(); err == nil {
		s.CPUPercent = cpuPercent
	}

	c.mu.Lock()
	c.report.Samples = append(c.report.Samples, s)
	c.mu.Unlock()
}

// Stop ends collection and returns the report.
func (c *Collector) Stop() Report {
	close(c.stopChan)
	<-c.doneChan

	c.mu.Lock()
	defer c.mu.Unlock()

	c.report.EndTime = time.Now()
	return c.report
}

// SaveToFile writes a plain-text run profile.
func (r Report) SaveToFile(filename string) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "run profile %s .. %s (%s)\n\n",
		r.StartTime.Format(time.RFC3339),
		r.EndTime.Format(time.RFC3339),
		r.EndTime.Sub(r.StartTime))

	var peakHeap, peakRSS uint64
	var peakCPU float64
	for _, s := range r.Samples {
		peakHeap = max(peakHeap, s.HeapAlloc)
		peakRSS = max(peakRSS, s.RSS)
		peakCPU = max(peakCPU, s.CPUPercent)
	}
	fmt.Fprintf(&sb, "peak heap %s, peak rss %s, peak cpu %.1f%%, samples %d\n\n",
		humanize.Bytes(peakHeap), humanize.Bytes(peakRSS), peakCPU, len(r.Samples))

	fmt.Fprintf(&sb, "%-26s %-12s %-12s %-8s %-6s\n", "timestamp", "heap", "rss", "cpu%", "gor")
	for _, s := range r.Samples {
		fmt.Fprintf(&sb, "%-26s %-12s %-12s %-8.1f %-6d\n",
			s.Timestamp.Format(time.RFC3339),
			humanize.Bytes(s.HeapAlloc),
			humanize.Bytes(s.RSS),
			s.CPUPercent,
			s.NumGoroutine)
	}

	if err := os.WriteFile(filename, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write stats file: %w", err)
	}
	return nil
}
