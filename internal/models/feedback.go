package models

// Feedback is a traveler's review. Records are append-only.
type Feedback struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name" validate:"required"`
	FeedbackText string `json:"feedbackText" validate:"required"`
	Rating       int    `json:"rating" validate:"min=1,max=5"`
	Timestamp    string `json:"timestamp"`
}

// TimingSlot is one stop pair in an operator's schedule grid, with the time
// already stored for that exact pair, if any.
type TimingSlot struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Time      string `json:"time"`
	Scheduled bool   `json:"scheduled"`
	Forward   bool   `json:"forward"`
}
