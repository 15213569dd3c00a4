package models

import (
	"encoding/json"
	"time"
)

// CompletionRecord is the outcome of one habit on one day.
type CompletionRecord struct {
	Completed bool       `json:"completed"`
	Photo     *string    `json:"photo"`
	Timestamp *time.Time `json:"timestamp"`

	Extra map[string]json.RawMessage `json:"-"`
}

var recordFields = []string{"completed", "photo", "timestamp"}

type recordAlias CompletionRecord

func (r CompletionRecord) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(recordAlias(r), r.Extra)
}

func (r *CompletionRecord) UnmarshalJSON(data []byte) error {
	var a recordAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, _, err := splitExtra(data, recordFields)
	if err != nil {
		return err
	}
	a.Extra = extra
	*r = CompletionRecord(a)
	return nil
}

// DayRecords maps habit ID to that habit's record for a single day.
type DayRecords map[string]CompletionRecord

// CompletedCount returns the number of completed records.
func (d DayRecords) CompletedCount() int {
	n := 0
	for _, r := range d {
		if r.Completed {
			n++
		}
	}
	return n
}

// AnyCompleted reports whether at least one habit was completed that day.
func (d DayRecords) AnyCompleted() bool {
	for _, r := range d {
		if r.Completed {
			return true
		}
	}
	return false
}

// DailyRecords maps a YYYY-MM-DD date to the records of that day.
type DailyRecords map[string]DayRecords
