package models

import "strconv"

// FormatPrice renders a whole amount with "." thousands separators, the way
// es-AR locale formatting shows it on the site (15000 -> "15.000").
func FormatPrice(amount int) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	digits := strconv.Itoa(amount)
	if len(digits) <= 3 {
		return sign + digits
	}

	var out []byte
	lead := len(digits) % 3
	if lead > 0 {
		out = append(out, digits[:lead]...)
	}
	for i := lead; i < len(digits); i += 3 {
		if len(out) > 0 {
			out = append(out, '.')
		}
		out = append(out, digits[i:i+3]...)
	}
	return sign + string(out)
}
