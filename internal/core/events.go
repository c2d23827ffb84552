package core

import "github.com/book-expert/events"

// AudiobookRequestedEvent asks the worker to build one audiobook from a
// chapter batch stored in the object store.
type AudiobookRequestedEvent struct {
	Header     events.EventHeader `json:"header"`
	BatchKey   string             `json:"batch_key"`
	OutputName string             `json:"output_name,omitempty"`
}

// AudiobookCreatedEvent reports a finished audiobook back to the requester.
type AudiobookCreatedEvent struct {
	Header     events.EventHeader `json:"header"`
	AudioKey   string             `json:"audio_key"`
	Chapters   int                `json:"chapters"`
	DurationMS int64              `json:"duration_ms"`
}
