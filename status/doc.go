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


// Package status infers the canonical lifecycle state of a procurement
// record from heterogeneous source fields.
//
// Portals disagree wildly about how they report lifecycle: some publish an
// awarded value, some a free-text situation string, some only timestamps.
// The classifier is an ordered rule list evaluated top to bottom; the first
// matching rule wins, and the order itself encodes which signals are
// trusted over which. A record no rule matches stays StatusUnknown, and
// callers must never filter unknown records out.
package status
