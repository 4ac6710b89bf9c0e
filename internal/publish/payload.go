// Package publish turns edited collections into the hand-off message sent to
// the maintainer who updates the hosted documents.
package publish

import (
	"fmt"
	"strings"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/importers"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/models"
)

// Separator goes between the blocks of a payload that carries both documents.
const Separator = "\n\n━━━━━━━━━━━━━━━━\n\n"

// WhatsAppBase is the deep-link prefix for a chat with a phone number.
const WhatsAppBase = "https://wa.me/"

// Changes records which collections were edited since the last publish.
type Changes struct {
	Services bool
	Prices   bool
}

// Any reports whether at least one collection changed.
func (c Changes) Any() bool {
	return c.Services || c.Prices
}

// Files lists the document names that changed, services first.
func (c Changes) Files() []string {
	var files []string
	if c.Services {
		files = append(files, importers.FileServices)
	}
	if c.Prices {
		files = append(files, importers.FilePrices)
	}
	return files
}

// Build renders the payload for the changed collections only. Each block is
// the file name, a blank line, and the pretty JSON, followed by the edit URL
// when editURLBase is set. Build returns "" when nothing changed.
func Build(services []models.Service, prices []models.Price, changes Changes, editURLBase string) (string, error) {
	var blocks []string

	if changes.Services {
		block, err := buildBlock(importers.FileServices, nonNil(services), editURLBase)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, block)
	}
	if changes.Prices {
		block, err := buildBlock(importers.FilePrices, nonNil(prices), editURLBase)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, block)
	}

	return strings.Join(blocks, Separator), nil
}

func buildBlock(file string, v any, editURLBase string) (string, error) {
	data, err := importers.EncodeJSON(v)
	if err != nil {
		return "", fmt.Errorf("publish: encode %s: %w", file, err)
	}
	block := file + "\n\n" + string(data)
	if editURLBase != "" {
		block += "\n" + strings.TrimRight(editURLBase, "/") + "/" + file
	}
	return block, nil
}

// WhatsAppLink returns the wa.me deep link that opens a chat with phone and
// pre-fills message.
func WhatsAppLink(phone, message string) string {
	return WhatsAppBase + phone + "?text=" + EscapeComponent(message)
}

// EscapeComponent percent-encodes s as a URI component: every byte except
// ASCII letters, digits and -_.!~*'() is written as %XX, and spaces become %20.
func EscapeComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldKeep(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&15])
	}
	return b.String()
}

func shouldKeep(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
