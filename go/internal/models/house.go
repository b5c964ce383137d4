package models

// House is a sub-choice entity used by kinds with sub-choices
type House struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IconRef string `json:"icon"`
}

// HouseLocation is a row of the managed houses listing
type HouseLocation struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	IconURL  string `json:"icon_url"`
}
