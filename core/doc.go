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


// Package core defines the canonical procurement record model shared by
// every stage of the aggregation pipeline.
//
// A Record is created by a source adapter at fetch time and carries both
// the normalized fields used for business logic and the raw source payload
// kept only for debugging. Records from different portals that describe the
// same real-world opportunity collapse to the same DedupKey, which is the
// identity used by the consolidation service to merge them.
package core
