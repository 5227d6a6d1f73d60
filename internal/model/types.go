// Package model defines shared data structures.
package model

import "time"

// Line is one timestamped subtitle unit. Times are in seconds.
type Line struct {
	ID        int
	StartTime float64
	EndTime   float64
	Text      string
}

// Duration returns the line length in seconds.
func (l Line) Duration() float64 {
	return l.EndTime - l.StartTime
}

// Section is a contiguous, time-bounded group of lines.
type Section struct {
	ID        int
	Label     string
	StartTime float64
	EndTime   float64
	Lines     []Line
}

// Contains reports whether t falls in the half-open window [StartTime, EndTime).
func (s Section) Contains(t float64) bool {
	return t >= s.StartTime && t < s.EndTime
}

// LearningMode selects how a line is practiced.
type LearningMode string

const (
	LearningDictation LearningMode = "dictation"
	LearningReveal    LearningMode = "reveal"
)

// RevealPlayback selects the playback policy used in reveal mode.
type RevealPlayback string

const (
	RevealLineByLine RevealPlayback = "line"
	RevealContinuous RevealPlayback = "continuous"
)

// Progress is the resume point persisted for a video record.
type Progress struct {
	LineIndex    int
	SectionIndex int
}

// VideoRecord describes a practiced video/subtitle pair.
type VideoRecord struct {
	ID              string
	DisplayName     string
	VideoPath       string
	SubtitlePath    string
	SubtitleText    string
	TotalLines      int
	Progress        Progress
	CompletionRate  float64
	LearningMode    LearningMode
	RevealPlayback  RevealPlayback
	DateAdded       time.Time
	LastPracticed   time.Time
	PracticeSeconds int64
}

// SavedLine is a bookmarked subtitle line.
type SavedLine struct {
	ID          string    `json:"id" yaml:"id"`
	Text        string    `json:"text" yaml:"text"`
	VideoID     string    `json:"video_id" yaml:"video_id"`
	LineID      int       `json:"line_id" yaml:"line_id"`
	VideoName   string    `json:"video_name" yaml:"video_name"`
	TimeDisplay string    `json:"time_display" yaml:"time_display"`
	DateSaved   time.Time `json:"date_saved" yaml:"date_saved"`
}

// Attempt records one dictation submission.
type Attempt struct {
	VideoID      string
	LineID       int
	CorrectWords int
	TotalWords   int
	At           time.Time
}

// VideoAggregate summarizes attempts for one video.
type VideoAggregate struct {
	VideoID      string
	DisplayName  string
	Attempts     int
	CorrectWords int
	TotalWords   int
	LastAt       time.Time
}
