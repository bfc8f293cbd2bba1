package model

import (
	"encoding/json"
	"math"
	"time"
)

// Word is a word-level timing inside a Segment.
type Word struct {
	Word        string        `json:"word"`
	Start       time.Duration `json:"-"`
	End         time.Duration `json:"-"`
	Probability float64       `json:"probability,omitempty"`
}

// Segment is one unit of transcribed speech shared by every stage.
type Segment struct {
	ID          int           `json:"id"`
	Start       time.Duration `json:"-"`
	End         time.Duration `json:"-"`
	Text        string        `json:"text"`
	Translation string        `json:"translation,omitempty"`
	Words       []Word        `json:"words,omitempty"`
}

// Duration returns End-Start.
func (s Segment) Duration() time.Duration {
	return s.End - s.Start
}

// HasTranslation reports whether a non-empty translation is attached.
func (s Segment) HasTranslation() bool {
	return s.Translation != ""
}

// Seconds converts a duration to float seconds rounded to the millisecond.
func Seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}

// FromSeconds converts float seconds to a duration.
func FromSeconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

type segmentJSON struct {
	ID          int     `json:"id"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Text        string  `json:"text"`
	Translation string  `json:"translation,omitempty"`
	Words       []Word  `json:"words,omitempty"`
}

func (s Segment) MarshalJSON() ([]byte, error) {
	return json.Marshal(segmentJSON{
		ID:          s.ID,
		Start:       Seconds(s.Start),
		End:         Seconds(s.End),
		Text:        s.Text,
		Translation: s.Translation,
		Words:       s.Words,
	})
}

func (s *Segment) UnmarshalJSON(data []byte) error {
	var raw segmentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Segment{
		ID:          raw.ID,
		Start:       FromSeconds(raw.Start),
		End:         FromSeconds(raw.End),
		Text:        raw.Text,
		Translation: raw.Translation,
		Words:       raw.Words,
	}
	return nil
}

type wordJSON struct {
	Word        string  `json:"word"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Probability float64 `json:"probability,omitempty"`
}

func (w Word) MarshalJSON() ([]byte, error) {
	return json.Marshal(wordJSON{
		Word:        w.Word,
		Start:       Seconds(w.Start),
		End:         Seconds(w.End),
		Probability: w.Probability,
	})
}

func (w *Word) UnmarshalJSON(data []byte) error {
	var raw wordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*w = Word{
		Word:        raw.Word,
		Start:       FromSeconds(raw.Start),
		End:         FromSeconds(raw.End),
		Probability: raw.Probability,
	}
	return nil
}

// EncodeSegments serialises segments for Subtitle.Content.
func EncodeSegments(segments []Segment) (string, error) {
	if segments == nil {
		segments = []Segment{}
	}
	data, err := json.Marshal(segments)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeSegments is the inverse of EncodeSegments.
func DecodeSegments(content string) ([]Segment, error) {
	var segments []Segment
	if err := json.Unmarshal([]byte(content), &segments); err != nil {
		return nil, err
	}
	return segments, nil
}
