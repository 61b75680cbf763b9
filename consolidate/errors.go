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


package consolidate

import (
	"errors"
	"fmt"
)

// ErrNoAdapters indicates a consolidation run with no registered sources.
var ErrNoAdapters = errors.New("no source adapters registered")

// AllSourcesFailedError indicates that every registered source failed and
// there is nothing to consolidate. Partial failures never produce it.
type AllSourcesFailedError struct {
	Errs []error
}

func (e *AllSourcesFailedError) Error() string {
	return fmt.Sprintf("all %d sources failed: %v", len(e.Errs), errors.Join(e.Errs...))
}

func (e *AllSourcesFailedError) Unwrap() []error {
	return e.Errs
}
