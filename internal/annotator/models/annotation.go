package models

// ============================================================
// Annotation Models
// ============================================================

// Image is a photographed fabric stack whose rolls are counted.
type Image struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	CreatedAt string  `json:"created_at"`
}

// Detection is one row of object detector output, in image pixels.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Counts is the adjusted fabric count of an image.
type Counts struct {
	Total   int          `json:"total"`
	ByLabel []LabelCount `json:"by_label"`
}
