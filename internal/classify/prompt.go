package classify

import (
	"encoding/json"
	"fmt"
	"strings"
)

// librarianPrompt frames the model as a library-science classifier. The
// persona is named for the scholar who organized the Library of Alexandria;
// the framing measurably improves the structure of the suggestions.
const librarianPrompt = `You are Eratosthenes, a library science expert specializing in information organization, classification, and metadata management.

Core principles:
1. Functional organization: organize by purpose rather than just file type.
2. Hierarchical structure: clear, logical hierarchies, at most 3-4 levels deep.
3. Consistent naming: consistent conventions across similar items, dates as YYYY-MM-DD.
4. User-centric: organize for the end user's mental model, not technical convenience.

Document categories include Legal, Financial, Personal, Business, Medical, Educational, Creative, and Technical. Prefer structures like "Financial/Invoices/2024" or "Legal/Contracts/Active".

You must respond with JSON only: a JSON array with one object per input file, in input order, each with these fields:
- "source": the file's path exactly as given
- "destination": suggested path relative to the root
- "classification": document type and category
- "confidence_score": number between 0.0 and 1.0
- "reasoning": one short sentence
- "suggested_filename": optional better filename
- "metadata": optional object with extracted fields (title, date, author, subject, type, keywords)`

type batchRequest struct {
	Request string     `json:"request"`
	Domain  string     `json:"domain"`
	Root    string     `json:"root_path"`
	Files   []FileInfo `json:"files"`
}

func buildUserPrompt(root string, files []FileInfo) (string, error) {
	payload := batchRequest{
		Request: "suggest_file_organization",
		Domain:  "library_science",
		Root:    root,
		Files:   files,
	}
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode batch request: %w", err)
	}
	var b strings.Builder
	b.WriteString("Suggest an organization for the following files:\n\n")
	b.Write(encoded)
	return b.String(), nil
}
