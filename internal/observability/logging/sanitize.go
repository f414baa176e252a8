package logging

import "regexp"

// dbPasswordPattern matches the password part of a URL-style DSN.
var dbPasswordPattern = regexp.MustCompile(`://([^:/@]+):([^@]+)@`)

// SanitizeError returns the error message with DSN passwords masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error())
}

// SanitizeString masks DSN passwords in s.
func SanitizeString(s string) string {
	return dbPasswordPattern.ReplaceAllString(s, "://$1:****@")
}
