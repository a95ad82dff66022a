package ui

import (
	"sort"
	"time"
)

// FileProgress is the download progress of one catalog entry.
type FileProgress struct {
	Index         int
	Name          string
	Received      uint64
	Total         uint64
	StartTime     time.Time
	LastUpdate    time.Time
	Speed         float64 // bytes per second
	EstimatedTime time.Duration
	Done          bool
}

// Percent of Total received; an empty file counts as complete.
func (p *FileProgress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	return float64(p.Received) / float64(p.Total) * 100.0
}

// ProgressTracker tracks per-file progress across rounds. It is not safe for
// concurrent use; the client session loop is its only caller.
type ProgressTracker struct {
	files map[int]*FileProgress
	now   func() time.Time
}

func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{
		files: make(map[int]*FileProgress),
		now:   time.Now,
	}
}

// Update records the bytes received so far for index, starting tracking on first use.
func (pt *ProgressTracker) Update(index int, name string, received, total uint64) *FileProgress {
	now := pt.now()
	p, exists := pt.files[index]
	if !exists {
		p = &FileProgress{Index: index, Name: name, Total: total, StartTime: now}
		pt.files[index] = p
	}
	p.Received = received
	p.LastUpdate = now

	if elapsed := now.Sub(p.StartTime).Seconds(); elapsed > 0 {
		p.Speed = float64(received) / elapsed
	}
	if p.Speed > 0 && total > received {
		p.EstimatedTime = time.Duration(float64(total-received)/p.Speed) * time.Second
	} else {
		p.EstimatedTime = 0
	}
	return p
}

// Complete marks index as done.
func (pt *ProgressTracker) Complete(index int) {
	if p, exists := pt.files[index]; exists {
		p.Done = true
		p.Received = p.Total
		p.EstimatedTime = 0
	}
}

// Active returns the files that have data but are not done, in catalog order.
func (pt *ProgressTracker) Active() []FileProgress {
	var out []FileProgress
	for _, p := range pt.files {
		if !p.Done && p.Received > 0 {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// formatDuration formats duration into human-readable format
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Hour {
		return d.Round(time.Second).String()
	}
	return d.Round(time.Minute).String()
}
