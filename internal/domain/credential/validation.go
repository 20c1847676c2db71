package credential

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	minTitleLen       = 3
	maxTitleLen       = 200
	minDescriptionLen = 10
	maxDescriptionLen = 1000
	minCourseIDLen    = 3
	maxCourseIDLen    = 100
	minURILen         = 10
	maxURILen         = 500
	maxIDLen          = 64
	maxExpiryHorizon  = 100 * 365 * 24 * time.Hour
)

var (
	reCertificateID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	reCourseID      = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9_-]*[A-Za-z0-9])?$`)
	uriSchemes      = []string{"https://", "ipfs://", "ar://"}
)

func invalid(field, msg string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidParams, field, msg)
}

func hasForbiddenChars(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		switch r {
		case '<', '>', '"', '\'', '&':
			return true
		}
		return unicode.IsControl(r)
	})
}

func checkText(field, s string, min, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	if n < min || n > max {
		return invalid(field, fmt.Sprintf("must be %d-%d characters", min, max))
	}
	if hasForbiddenChars(s) {
		return invalid(field, "contains forbidden characters")
	}
	return nil
}

// ValidCourseID reports whether s is usable as a scope identifier.
func ValidCourseID(s string) bool {
	return len(s) >= minCourseIDLen && len(s) <= maxCourseIDLen && reCourseID.MatchString(s)
}

// ValidURI reports whether s has an accepted scheme and length.
func ValidURI(s string) bool {
	if len(s) < minURILen || len(s) > maxURILen || hasForbiddenChars(s) || strings.ContainsAny(s, " \t") {
		return false
	}
	for _, scheme := range uriSchemes {
		if strings.HasPrefix(s, scheme) && len(s) > len(scheme) {
			return true
		}
	}
	return false
}

// Validate checks p against the issuance rules as of now.
func (p MintParams) Validate(now time.Time) error {
	if p.CertificateID == "" || len(p.CertificateID) > maxIDLen || !reCertificateID.MatchString(p.CertificateID) {
		return invalid("certificate_id", "must be 1-64 characters of letters, digits, '-' or '_'")
	}
	if !ValidCourseID(p.CourseID) {
		return invalid("course_id", "must be 3-100 alphanumeric characters, '-' or '_' only inside")
	}
	if strings.TrimSpace(p.Student) == "" || utf8.RuneCountInString(p.Student) > maxIDLen || hasForbiddenChars(p.Student) {
		return invalid("student", "must be 1-64 characters without forbidden characters")
	}
	if err := checkText("title", p.Title, minTitleLen, maxTitleLen); err != nil {
		return err
	}
	if err := checkText("description", p.Description, minDescriptionLen, maxDescriptionLen); err != nil {
		return err
	}
	if !ValidURI(p.MetadataURI) {
		return invalid("metadata_uri", "must be 10-500 characters with https://, ipfs:// or ar:// scheme")
	}
	if p.ExpiryDate != 0 {
		exp := time.Unix(p.ExpiryDate, 0)
		if !exp.After(now) {
			return invalid("expiry_date", "must be in the future")
		}
		if exp.Sub(now) > maxExpiryHorizon {
			return invalid("expiry_date", "must be within 100 years")
		}
	}
	return nil
}
