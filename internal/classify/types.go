package classify

// FileInfo describes one file presented to the classifier. Paths are relative
// to the tree root so prompts stay small and the model never sees absolute
// paths.
type FileInfo struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Extension string `json:"extension"`
	Size      int64  `json:"size"`
}

// Suggestion is one proposed relocation returned by a classifier. Source and
// Destination are relative to the tree root the batch was built from.
type Suggestion struct {
	Source            string            `json:"source"`
	Destination       string            `json:"destination"`
	Classification    string            `json:"classification"`
	Confidence        float64           `json:"confidence_score"`
	Reasoning         string            `json:"reasoning"`
	SuggestedFilename string            `json:"suggested_filename,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// Normalize clamps the confidence into [0, 1].
func (s *Suggestion) Normalize() {
	if s.Confidence < 0 {
		s.Confidence = 0
	}
	if s.Confidence > 1 {
		s.Confidence = 1
	}
}
