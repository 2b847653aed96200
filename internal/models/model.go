package models

import (
	"strconv"
	"strings"
)

// Model is one entry of the OpenRouter model catalog.
type Model struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Pricing Pricing `json:"pricing"`
}

// Pricing holds the advertised per-token prices of a model. OpenRouter reports prices as decimal
// strings, so they are kept verbatim and only interpreted when filtering.
type Pricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

const freeModelMarker = ":free"

// IsFree reports whether the model is usable without credits: either its id carries the free-tier
// marker, or its advertised prompt price is zero.
func (m Model) IsFree() bool {
	if strings.Contains(m.ID, freeModelMarker) {
		return true
	}
	price, err := strconv.ParseFloat(m.Pricing.Prompt, 64)
	if err != nil {
		return false
	}
	return price == 0
}

// FilterFree returns the free-tier subset of catalog, preserving order.
func FilterFree(catalog []Model) []Model {
	var free []Model
	for _, m := range catalog {
		if m.IsFree() {
			free = append(free, m)
		}
	}
	return free
}
