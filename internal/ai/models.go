package ai

import "strings"

// ServiceTypes is the catalog the classifier is allowed to answer with.
var ServiceTypes = []string{
	"lawn_mowing",
	"hedge_trimming",
	"leaf_removal",
	"landscape_design",
	"irrigation",
	"tree_care",
	"snow_removal",
	"mulching",
}

// ClassificationResult is the structured reply requested from the model.
type ClassificationResult struct {
	ServiceType string  `json:"service_type"`
	Confidence  float64 `json:"confidence"`
}

// normalizeService returns the catalog entry matching s, or "" when s is not
// in the catalog.
func normalizeService(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	for _, known := range ServiceTypes {
		if s == known {
			return known
		}
	}
	return ""
}
