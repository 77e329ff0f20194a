package entity

// HistoryEntry points at a previously produced cutout.
type HistoryEntry struct {
	URL string `json:"url" validate:"required"`
	// Score is the mask confidence reported with the cutout, when known.
	Score string `json:"score,omitempty"`
}
