// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Quillbotics

package lss

import (
	"fmt"
	"time"
)

// Statistics tracks bus traffic counters for the monitor tooling.
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalFrames     uint64
	Requests        uint64
	Replies         uint64
	MalformedFrames uint64
	PerCommand      map[Command]uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // malformed/sec
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
		PerCommand:     make(map[Command]uint64),
	}
}

// Update records one decode outcome: a frame, or a decode error.
func (s *Statistics) Update(frame *Frame, decodeErr error) {
	s.TotalFrames++

	if decodeErr != nil {
		s.MalformedFrames++
		s.LastUpdateTime = time.Now()
		return
	}

	switch frame.Kind {
	case KindRequest:
		s.Requests++
	case KindReply:
		s.Replies++
	}
	s.PerCommand[frame.Command]++
	s.LastUpdateTime = time.Now()
}

// CalculateRates calculates frame and error rates.
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		s.ErrorRate = float64(s.MalformedFrames) / elapsed
	}
}

// String returns a formatted statistics summary.
func (s *Statistics) String() string {
	s.CalculateRates()

	var malformedPercent float64
	if s.TotalFrames > 0 {
		malformedPercent = float64(s.MalformedFrames) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:    %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Requests:        %8d\n", s.Requests)
	result += fmt.Sprintf("Replies:         %8d\n", s.Replies)
	if s.MalformedFrames > 0 {
		result += fmt.Sprintf("Malformed:       %8d (%.1f%%)\n", s.MalformedFrames, malformedPercent)
	}
	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters.
func (s *Statistics) Reset() {
	now := time.Now()
	s.StartTime = now
	s.LastUpdateTime = now
	s.TotalFrames = 0
	s.Requests = 0
	s.Replies = 0
	s.MalformedFrames = 0
	s.PerCommand = make(map[Command]uint64)
	s.FrameRate = 0
	s.ErrorRate = 0
}
