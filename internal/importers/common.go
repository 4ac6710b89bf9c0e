// Package importers reads and writes the two catalog documents the site is
// published from: services.json and prices.json.
package importers

// Document file names. They double as the block headers of a published
// payload and the paths under the remote content base URL.
const (
	FileServices = "services.json"
	FilePrices   = "prices.json"
)

// DetectDocument guesses which catalog document data holds by peeking at the
// keys of its first record. It returns FileServices, FilePrices, or an empty
// string when the content is not recognized.
func DetectDocument(data []byte) string {
	trimmed := trimLeading(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return ""
	}

	head := string(trimmed[:min(len(trimmed), 400)])
	if containsAll(head, `"items"`, `"icon"`) {
		return FileServices
	}
	if containsAll(head, `"service"`, `"time"`) {
		return FilePrices
	}
	return ""
}

// trimLeading strips a UTF-8 BOM and leading whitespace.
func trimLeading(data []byte) []byte {
	trimmed := data
	if len(trimmed) >= 3 && trimmed[0] == 0xEF && trimmed[1] == 0xBB && trimmed[2] == 0xBF {
		trimmed = trimmed[3:]
	}
	for len(trimmed) > 0 && (trimmed[0] == ' ' || trimmed[0] == '\t' || trimmed[0] == '\n' || trimmed[0] == '\r') {
		trimmed = trimmed[1:]
	}
	return trimmed
}

func containsAll(s string, substrings ...string) bool {
	for _, sub := range substrings {
		found := false
		for i := 0; i <= len(s)-len(sub); i++ {
			if s[i:i+len(sub)] == sub {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
