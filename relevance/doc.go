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


// Package relevance implements the keyword matching and scoring engine used
// to filter procurement records against sector keyword rules.
//
// The engine combines:
//   - Text normalization tuned for Portuguese (diacritics folding)
//   - Whole-word and contiguous-phrase keyword matching with exclusions
//   - A relevance score in [0,1] with a phrase bonus
//   - Adaptive minimum-match thresholds by keyword set size
//   - Confidence-band re-ranking of accepted records
package relevance
