package leave

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// IsTerminal reports whether s is a reviewer decision.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// LeaveRequest mirrors the record shape of the remote source. Wire keys are
// snake_case except createdAt, which the source emits in camelCase.
type LeaveRequest struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	TypeOfLeave string    `json:"type_of_leave"`
	DateFrom    Timestamp `json:"date_from"`
	DateTo      Timestamp `json:"date_to"`
	Status      Status    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   Timestamp `json:"createdAt"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp is a point in time decoded leniently from the source. The raw
// JSON is kept so a record is re-emitted exactly as it was received.
// A value that cannot be parsed keeps the zero Time.
type Timestamp struct {
	Time time.Time
	raw  []byte
}

func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// ParseTimestamp parses s with the accepted layouts, falling back to the zero time.
func ParseTimestamp(s string) Timestamp {
	raw, _ := json.Marshal(s)
	return Timestamp{Time: parseTime(s), raw: raw}
}

func (t Timestamp) IsZero() bool {
	return t.Time.IsZero()
}

func (t Timestamp) String() string {
	if len(t.raw) > 0 {
		var s string
		if json.Unmarshal(t.raw, &s) == nil {
			return s
		}
		return string(t.raw)
	}
	if t.Time.IsZero() {
		return ""
	}
	return t.Time.Format(time.RFC3339)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if len(t.raw) > 0 {
		return t.raw, nil
	}
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = Timestamp{}
		return nil
	}

	raw := make([]byte, len(b))
	copy(raw, b)
	t.raw = raw

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		t.Time = parseTime(s)
		return nil
	}

	// numeric epoch, seconds or milliseconds
	n, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		t.Time = time.Time{}
		return nil
	}
	t.Time = fromEpoch(n)
	return nil
}

func parseTime(s string) time.Time {
	for _, layout := range timestampLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			return v.UTC()
		}
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return fromEpoch(n)
	}
	return time.Time{}
}

func fromEpoch(n float64) time.Time {
	if n > 1e12 {
		return time.UnixMilli(int64(n)).UTC()
	}
	return time.Unix(int64(n), 0).UTC()
}
