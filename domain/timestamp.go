package domain

import (
	"strconv"
	"time"
)

// timestampLayout is the wire format the on-disk JSONL schemas require:
// ISO-8601, UTC, millisecond precision. time.Time's default JSON
// encoding is local-timezone RFC3339Nano, which neither field matches.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp wraps time.Time so every on-disk JSONL line
// (dialogue_transcript.jsonl, metrics.jsonl) marshals its timestamp the
// same way regardless of the writer's local timezone.
type Timestamp time.Time

// NewTimestamp wraps t as a Timestamp.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t)
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(time.Time(t).UTC().Format(timestampLayout))), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	parsed, err := time.Parse(timestampLayout, s)
	if err != nil {
		// Tolerate RFC3339Nano for lines written before this format existed.
		parsed, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return err
		}
	}
	*t = Timestamp(parsed)
	return nil
}
