package state

import "time"

// Entry is one reconciliation run as recorded in the journal.
type Entry struct {
	Time            time.Time `json:"time"`
	Outcome         string    `json:"outcome"`
	IP              string    `json:"ip,omitempty"`
	RecordName      string    `json:"recordName"`
	RecordID        string    `json:"recordId,omitempty"`
	PreviousContent string    `json:"previousContent,omitempty"`
	Error           string    `json:"error,omitempty"`
}
