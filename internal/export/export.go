// Package export writes sleep sessions out as JSON lines for downstream
// tools (health data import, spreadsheets). Failures are reported per item;
// one bad session never aborts the rest of the batch.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"sneuz/internal/model"
)

type ItemError struct {
	SessionID string
	Err       error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("session %s: %v", e.SessionID, e.Err)
}

type Result struct {
	Exported int
	Skipped  []ItemError
}

// Sessions writes one JSON object per line for every completed session.
// Open sessions are recorded as per-item failures and skipped.
func Sessions(w io.Writer, sessions []model.SleepSession) Result {
	encoder := json.NewEncoder(w)
	var result Result
	for i := range sessions {
		s := &sessions[i]
		if s.Open() {
			result.Skipped = append(result.Skipped, ItemError{
				SessionID: s.ID,
				Err:       fmt.Errorf("session still open"),
			})
			continue
		}
		if err := encoder.Encode(s); err != nil {
			result.Skipped = append(result.Skipped, ItemError{SessionID: s.ID, Err: err})
			continue
		}
		result.Exported++
	}
	return result
}
