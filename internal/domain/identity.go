package domain

import (
	"strings"
)

var allowedEmailDomains = []string{"duoc.cl", "profesor.duoc.cl", "gmail.com"}

// ValidRUT checks a Chilean RUT using the modulo-11 check digit. Dots and dashes are ignored.
func ValidRUT(rut string) bool {
	clean := strings.ToUpper(strings.NewReplacer(".", "", "-", "").Replace(strings.TrimSpace(rut)))
	if len(clean) < 8 || len(clean) > 9 {
		return false
	}
	body, dv := clean[:len(clean)-1], clean[len(clean)-1]
	for _, r := range body {
		if r < '0' || r > '9' {
			return false
		}
	}
	if (dv < '0' || dv > '9') && dv != 'K' {
		return false
	}
	return checkDigit(body) == dv
}

func checkDigit(body string) byte {
	sum, factor := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * factor
		factor++
		if factor > 7 {
			factor = 2
		}
	}
	switch v := 11 - sum%11; v {
	case 11:
		return '0'
	case 10:
		return 'K'
	default:
		return byte('0' + v)
	}
}

// FormatRUT renders a RUT as 12.345.678-5. Characters other than digits and K are dropped.
func FormatRUT(rut string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(rut) {
		if (r >= '0' && r <= '9') || r == 'K' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if len(clean) < 2 {
		return clean
	}
	body, dv := clean[:len(clean)-1], clean[len(clean)-1:]

	var out []byte
	for i := 0; i < len(body); i++ {
		if i > 0 && (len(body)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, body[i])
	}
	return string(out) + "-" + dv
}

// AllowedEmail reports whether the address belongs to an accepted domain.
func AllowedEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return false
	}
	domain := email[at+1:]
	for _, allowed := range allowedEmailDomains {
		if domain == allowed {
			return true
		}
	}
	return false
}
