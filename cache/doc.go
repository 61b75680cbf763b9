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


// Package cache implements the tiered result cache for consolidated query
// results.
//
// # Tiers
//
// Three tiers are consulted fastest-first:
//
//   - a process-local map (survives nothing, costs nothing)
//   - a shared low-latency cache backed by ristretto
//   - a durable BadgerDB store
//
// A read miss at a faster tier is populated from the first slower tier
// holding the entry; a write always propagates to every tier. A tier that
// errors is logged and skipped, never surfaced to the caller.
//
// # Bookkeeping
//
// Each entry tracks access frequency (driving hot/warm/cold priority), its
// fetch time (driving fresh/stale status), and a failure streak that, past
// a threshold, marks the entry degraded and suppresses refetch attempts
// until the suppression window elapses. Degradation bounds retry storms
// against a source that is down.
//
// # Thread Safety
//
// All tiers and the Tiered orchestrator are safe for concurrent use.
// Refreshes for the same key are serialized through Tiered.DoOnce so
// concurrent identical queries trigger at most one upstream fetch.
package cache
