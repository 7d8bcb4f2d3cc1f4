package certificates

import "strings"

// SuggestedFilename derives the download name from the company name.
// Spaces become underscores; nothing else is changed.
func SuggestedFilename(companyName string) string {
	return "Certificado_" + strings.ReplaceAll(companyName, " ", "_") + ".pdf"
}
