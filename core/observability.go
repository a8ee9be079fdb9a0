//go:build unix

package core

import "time"

// SwitchRecord captures the start of one quantum.
type SwitchRecord struct {
	// TotalQuanta is the scheduler's quantum counter after the switch.
	TotalQuanta int
	From        int
	To          int
	Reason      SwitchReason
	At          time.Time
}

// SchedulerStats represents runtime observability state for a scheduler.
type SchedulerStats struct {
	Running     int
	Live        int
	Ready       int
	Blocked     int
	TotalQuanta int
	MaxThreads  int
	Closed      bool
	ReadyQueue  []int
}
