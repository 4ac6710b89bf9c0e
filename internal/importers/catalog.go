package importers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/models"
)

// ParseServices decodes a services.json document and validates every record.
// A document that decodes but breaks a record invariant is rejected whole.
func ParseServices(r io.Reader) ([]models.Service, error) {
	var services []models.Service
	if err := decodeArray(r, &services); err != nil {
		return nil, fmt.Errorf("importers: decode %s: %w", FileServices, err)
	}
	if err := models.ValidateServices(services); err != nil {
		return nil, fmt.Errorf("importers: validate %s: %w", FileServices, err)
	}
	return services, nil
}

// ParsePrices decodes a prices.json document and validates every record.
func ParsePrices(r io.Reader) ([]models.Price, error) {
	var prices []models.Price
	if err := decodeArray(r, &prices); err != nil {
		return nil, fmt.Errorf("importers: decode %s: %w", FilePrices, err)
	}
	if err := models.ValidatePrices(prices); err != nil {
		return nil, fmt.Errorf("importers: validate %s: %w", FilePrices, err)
	}
	return prices, nil
}

// EncodeJSON renders v the way the published documents are written: two-space
// indentation, no HTML escaping, no trailing newline.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("importers: encode json: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// decodeArray requires the document to be a single JSON array. A null or
// object document is an error, and so is trailing data after the array.
func decodeArray(r io.Reader, dst any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	data = trimLeading(data)
	if len(data) == 0 || data[0] != '[' {
		return fmt.Errorf("expected a JSON array")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON array")
	}
	return nil
}
