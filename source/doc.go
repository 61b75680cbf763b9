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


// Package source defines the portal adapter contract and the resilient
// HTTP machinery shared by every adapter: classified retries with
// exponential backoff, a per-adapter rate-limit floor, a circuit breaker,
// and region batching with bounded concurrency.
//
// Each external portal gets one Adapter implementation in a subpackage
// (pncp, comprasgov, licitanet). Adapters stream normalized records over a
// channel so consumers get backpressure and cancellation closes the stream.
package source
