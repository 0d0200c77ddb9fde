package models

// Color is a normalized RGBA value as the compositor expects it,
// each channel in [0, 1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}
