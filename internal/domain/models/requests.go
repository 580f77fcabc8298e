package models

// InstrumentsRequest replaces the selected instruments. An empty list clears them.
type InstrumentsRequest struct {
	Instruments []string `json:"instruments" validate:"required,max=32,dive,required,max=16"`
}

// DateRequest sets one end of the date range. Accepts YYYY-MM-DD or RFC3339.
type DateRequest struct {
	Date string `json:"date" validate:"required"`
}

// AnalyzeRequest starts a fetch cycle. With Wait the response carries the
// terminal view instead of 202.
type AnalyzeRequest struct {
	Wait bool `json:"wait" default:"false"`
}
