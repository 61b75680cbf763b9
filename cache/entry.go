// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package cache

import (
	"encoding/json"
	"time"

	"github.com/poiesic/editais/core"
)

// Priority classifies how actively an entry is being queried.
type Priority int

const (
	PriorityWarm Priority = iota
	PriorityHot
	PriorityCold
)

func (p Priority) String() string {
	switch p {
	case PriorityHot:
		return "hot"
	case PriorityCold:
		return "cold"
	default:
		return "warm"
	}
}

// Status is the freshness classification exposed to callers.
type Status int

const (
	StatusFresh Status = iota
	StatusStale
	StatusDegraded
)

func (s Status) String() string {
	switch s {
	case StatusFresh:
		return "fresh"
	case StatusStale:
		return "stale"
	default:
		return "degraded"
	}
}

const (
	// hotAccessThreshold promotes an entry to hot once it has been read this
	// many times within the rolling hot window.
	hotAccessThreshold = 5
	hotWindow          = 30 * time.Minute

	// coldAfter demotes an entry that nobody has read for this long.
	coldAfter = 24 * time.Hour
)

// Coverage records which sources or regions a run actually reached versus
// what the query requested.
type Coverage struct {
	Requested []string `json:"requested"`
	Succeeded []string `json:"succeeded"`

	// Breakdown maps each requested source or region to its outcome
	// ("ok", "timeout", "error").
	Breakdown map[string]string `json:"breakdown,omitempty"`
}

// Percent is succeeded over requested, in [0, 100]. An empty request
// counts as full coverage.
func (c Coverage) Percent() float64 {
	if len(c.Requested) == 0 {
		return 100
	}
	ok := make(map[string]struct{}, len(c.Succeeded))
	for _, s := range c.Succeeded {
		ok[s] = struct{}{}
	}
	var hit int
	for _, r := range c.Requested {
		if _, found := ok[r]; found {
			hit++
		}
	}
	return 100 * float64(hit) / float64(len(c.Requested))
}

// Entry is one cached result set, keyed by the hash of its normalized
// query parameters.
type Entry struct {
	Key     string        `json:"key"`
	Records []core.Record `json:"records"`

	FetchedAt    time.Time `json:"fetchedAt"`
	Priority     Priority  `json:"priority"`
	AccessCount  int       `json:"accessCount"`
	LastAccessAt time.Time `json:"lastAccessAt"`
	// windowStart anchors the rolling window the hot promotion counts in.
	WindowStart time.Time `json:"windowStart"`

	FailStreak    int       `json:"failStreak"`
	DegradedUntil time.Time `json:"degradedUntil,omitempty"`

	Coverage Coverage `json:"coverage"`
}

// Age is the time elapsed since the entry's result set was fetched.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// StatusAt classifies the entry against a staleness threshold. Degradation
// takes precedence over staleness.
func (e *Entry) StatusAt(now time.Time, ttl time.Duration) Status {
	if now.Before(e.DegradedUntil) {
		return StatusDegraded
	}
	if e.Age(now) > ttl {
		return StatusStale
	}
	return StatusFresh
}

// PriorityAt returns the effective priority at now. Demotion to cold is a
// function of inactivity, not a stored transition: an entry nobody reads
// is cold from the moment its inactivity passes the threshold, without
// anything having to touch it.
func (e *Entry) PriorityAt(now time.Time) Priority {
	if !e.LastAccessAt.IsZero() && now.Sub(e.LastAccessAt) > coldAfter {
		return PriorityCold
	}
	return e.Priority
}

// Touch records one read and re-evaluates priority. Repeated access inside
// the rolling window promotes to hot; a read after a long-cold stretch
// restarts at warm.
func (e *Entry) Touch(now time.Time) {
	if e.WindowStart.IsZero() || now.Sub(e.WindowStart) > hotWindow {
		e.WindowStart = now
		e.AccessCount = 0
	}
	e.Priority = e.PriorityAt(now)
	e.AccessCount++
	e.LastAccessAt = now

	if e.AccessCount >= hotAccessThreshold {
		e.Priority = PriorityHot
	} else if e.Priority == PriorityCold {
		// A cold entry being read again starts earning warmth back.
		e.Priority = PriorityWarm
	}
}

// marshalEntry encodes an entry as JSON. Values are JSON rather than a
// binary codec so the durable tier stays inspectable by admin tooling.
func marshalEntry(e *Entry) ([]byte, error) {
	return json.Marshal(e)
}

func unmarshalEntry(data []byte) (*Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
