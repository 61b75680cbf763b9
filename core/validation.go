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


package core

import "fmt"

// ValidateRecord validates a Record according to domain rules.
//
// Validation rules:
//   - Source must not be empty
//   - The record must carry a stable identity: either a SourceID, or the
//     full notice identity (AgencyTaxID + NoticeNumber + Year)
//   - EstimatedValue and HomologatedValue must not be negative
//   - StateCode, when present, must be a two-letter code
//
// NOT validated (populated by pipeline stages):
//   - InferredStatus, RelevanceScore, ConfidenceScore, MatchedKeywords
func ValidateRecord(record *Record) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.Source == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrInvalidSource)
	}

	hasNoticeIdentity := record.AgencyTaxID != "" && record.NoticeNumber != "" && record.Year != 0
	if record.SourceID == "" && !hasNoticeIdentity {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrMissingIdentity)
	}

	if record.EstimatedValue < 0 {
		return fmt.Errorf("%w: %w: estimated value %.2f", ErrInvalidRecord, ErrNegativeValue, record.EstimatedValue)
	}
	if record.HomologatedValue != nil && *record.HomologatedValue < 0 {
		return fmt.Errorf("%w: %w: homologated value %.2f", ErrInvalidRecord, ErrNegativeValue, *record.HomologatedValue)
	}

	if record.StateCode != "" && NormalizeStateCode(record.StateCode) != record.StateCode {
		return fmt.Errorf("%w: %w: %q", ErrInvalidRecord, ErrInvalidStateCode, record.StateCode)
	}

	return nil
}
