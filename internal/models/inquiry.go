package models

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Form identifiers for the two public contact forms. They double as the
// email template names.
const (
	FormQuick   = "quick"
	FormContact = "contact"
)

// sqliteTimestamp matches the text layout of CURRENT_TIMESTAMP.
const sqliteTimestamp = "2006-01-02 15:04:05"

// CallBackYes and CallBackNo are the rendered values of the "llamar" field.
const (
	CallBackYes = "Sí, prefiere que lo llamen"
	CallBackNo  = "No"
)

// QuickRequest is the short budget-request form.
type QuickRequest struct {
	Device      string
	DeviceOther string
	Brand       string
	BrandOther  string
	Problem     string
	Email       string
}

// ContactRequest is the detailed contact form.
type ContactRequest struct {
	Name        string
	Phone       string
	Email       string
	Device      string
	DeviceOther string
	Brand       string
	BrandOther  string
	Problem     string
	CallBack    bool
}

// Inquiry is a recorded contact-form submission.
type Inquiry struct {
	ID        int64
	Form      string
	Name      string
	Phone     string
	Email     string
	Device    string
	Brand     string
	Problem   string
	CallBack  bool
	Delivered bool
	CreatedAt time.Time
}

// Inquiry normalizes the quick form into a record, resolving "Otro"/"Otra"
// selections to their free-text values.
func (q QuickRequest) Inquiry() (*Inquiry, error) {
	in := &Inquiry{
		Form:    FormQuick,
		Email:   strings.TrimSpace(q.Email),
		Device:  otherChoice(q.Device, q.DeviceOther),
		Brand:   otherChoice(q.Brand, q.BrandOther),
		Problem: strings.TrimSpace(q.Problem),
	}
	if in.Email == "" || in.Device == "" || in.Brand == "" || in.Problem == "" {
		return nil, ErrMissingFields
	}
	return in, nil
}

// Inquiry normalizes the contact form into a record.
func (c ContactRequest) Inquiry() (*Inquiry, error) {
	in := &Inquiry{
		Form:     FormContact,
		Name:     strings.TrimSpace(c.Name),
		Phone:    strings.TrimSpace(c.Phone),
		Email:    strings.TrimSpace(c.Email),
		Device:   otherChoice(c.Device, c.DeviceOther),
		Brand:    otherChoice(c.Brand, c.BrandOther),
		Problem:  strings.TrimSpace(c.Problem),
		CallBack: c.CallBack,
	}
	if in.Name == "" || in.Phone == "" || in.Email == "" || in.Device == "" || in.Brand == "" || in.Problem == "" {
		return nil, ErrMissingFields
	}
	return in, nil
}

// Params returns the flat template parameter map for the inquiry's form.
func (in *Inquiry) Params() map[string]string {
	if in.Form == FormQuick {
		return map[string]string{
			"dispositivo": in.Device,
			"marca":       in.Brand,
			"problema":    in.Problem,
			"email":       in.Email,
		}
	}
	llamar := CallBackNo
	if in.CallBack {
		llamar = CallBackYes
	}
	return map[string]string{
		"nombre":      in.Name,
		"telefono":    in.Phone,
		"email":       in.Email,
		"dispositivo": in.Device,
		"marca":       in.Brand,
		"problema":    in.Problem,
		"llamar":      llamar,
	}
}

// CreateInquiry records a submission and fills in its ID and CreatedAt.
func CreateInquiry(db *sql.DB, in *Inquiry) error {
	row := db.QueryRow(
		`INSERT INTO inquiries (form, name, phone, email, device, brand, problem, call_back)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id, created_at`,
		in.Form, in.Name, in.Phone, in.Email, in.Device, in.Brand, in.Problem, in.CallBack,
	)
	if err := row.Scan(&in.ID, &in.CreatedAt); err != nil {
		return fmt.Errorf("models: create inquiry: %w", err)
	}
	return nil
}

// MarkInquiryDelivered records that the inquiry's email went out.
func MarkInquiryDelivered(db *sql.DB, id int64) error {
	result, err := db.Exec(`UPDATE inquiries SET delivered = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("models: mark inquiry %d delivered: %w", id, err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListInquiries returns the most recent submissions first, up to limit rows.
func ListInquiries(db *sql.DB, limit int) ([]*Inquiry, error) {
	rows, err := db.Query(
		`SELECT id, form, name, phone, email, device, brand, problem, call_back, delivered, created_at
		 FROM inquiries ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("models: list inquiries: %w", err)
	}
	defer rows.Close()

	var inquiries []*Inquiry
	for rows.Next() {
		in := &Inquiry{}
		if err := rows.Scan(&in.ID, &in.Form, &in.Name, &in.Phone, &in.Email, &in.Device,
			&in.Brand, &in.Problem, &in.CallBack, &in.Delivered, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("models: scan inquiry: %w", err)
		}
		inquiries = append(inquiries, in)
	}
	return inquiries, rows.Err()
}

// DeleteInquiriesBefore prunes submissions created before the cutoff and
// returns how many rows were removed.
func DeleteInquiriesBefore(db *sql.DB, cutoff time.Time) (int64, error) {
	result, err := db.Exec(`DELETE FROM inquiries WHERE created_at < ?`,
		cutoff.UTC().Format(sqliteTimestamp))
	if err != nil {
		return 0, fmt.Errorf("models: prune inquiries: %w", err)
	}
	return result.RowsAffected()
}
