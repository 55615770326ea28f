package domain

import (
	"strings"
	"unicode/utf8"
)

// MaskCustomerName reduces a customer name to a salutation form for field
// staff and public views: surname plus a generic honorific. Space-separated
// names keep the first word; single-word names keep the first rune.
func MaskCustomerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "customer"
	}
	surname := name
	if idx := strings.IndexByte(name, ' '); idx > 0 {
		surname = name[:idx]
	} else {
		r, size := utf8.DecodeRuneInString(name)
		if r != utf8.RuneError {
			surname = name[:size]
		}
	}
	return "Mr./Ms. " + surname
}

// MaskPhone half-masks a phone number for public track views:
// 0912345678 becomes 0912***678.
func MaskPhone(phone string) string {
	if phone == "" {
		return ""
	}
	if len(phone) <= 7 {
		return phone
	}
	return phone[:4] + "***" + phone[len(phone)-3:]
}

// MaskAddress keeps only a coarse locality prefix for public track views.
func MaskAddress(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return ""
	}
	runes := []rune(address)
	if len(runes) <= 6 {
		return "***"
	}
	return string(runes[:6]) + "***"
}

// TruncateDescription bounds free text exposed on public surfaces.
func TruncateDescription(text string, max int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max]) + "..."
}
