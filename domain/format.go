package domain

import (
	"fmt"
	"regexp"
	"time"
)

var nonDigit = regexp.MustCompile(`\D`)

// FormatTime renders a message timestamp as "03:04 PM".
func FormatTime(t time.Time) string {
	return t.Format("03:04 PM")
}

// FormatDate renders a chatroom activity date relative to now.
func FormatDate(now, t time.Time) string {
	days := int(now.Sub(t) / (24 * time.Hour))
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("Jan 2")
	}
}

// FormatPhone renders the first ten digits as "(123) 456-7890".
// Shorter numbers are returned untouched.
func FormatPhone(phone string) string {
	cleaned := nonDigit.ReplaceAllString(phone, "")
	if len(cleaned) < 10 {
		return phone
	}
	return fmt.Sprintf("(%s) %s-%s%s", cleaned[0:3], cleaned[3:6], cleaned[6:10], cleaned[10:])
}
