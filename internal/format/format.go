// Package format classifies leaf string values into a fixed set of semantic
// formats (dates, identifiers, network addresses, ...) used by the
// inference engine to enrich String-typed fields.
//
// Detection is a single deterministic pass over compiled patterns evaluated
// in a fixed precedence order -- no probabilistic classification, no
// per-call allocation beyond the match itself.
package format

import (
	"regexp"
	"strings"
)

// Format is one of a closed set of semantic string formats.
type Format string

const (
	Date          Format = "date"
	DateTime      Format = "datetime"
	Time          Format = "time"
	Email         Format = "email"
	URI           Format = "uri"
	UUID          Format = "uuid"
	IPv4          Format = "ipv4"
	IPv6          Format = "ipv6"
	Hostname      Format = "hostname"
	JSONPointer   Format = "json-pointer"
	Regex         Format = "regex"
	Base64        Format = "base64"
	Phone         Format = "phone"
	CreditCard    Format = "credit-card"
	CountryCode   Format = "country-code"
	CurrencyCode  Format = "currency-code"
	Semver        Format = "semver"
	None          Format = "none"
)

// detector pairs a Format with the predicate that recognizes it.
type detector struct {
	format Format
	match  func(string) bool
}

var (
	reUUID        = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	reDateTime    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:?\d{2})?$`)
	reDate        = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reTime        = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}(\.\d+)?$`)
	reEmail       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	reURI         = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://\S+$`)
	reIPv4        = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)
	reIPv6        = regexp.MustCompile(`^[0-9a-fA-F:]{2,}$`)
	reSemver      = regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`)
	rePhone       = regexp.MustCompile(`^\+?[0-9 ()\-.]{8,15}$`)
	reCountryCode = regexp.MustCompile(`^[A-Z]{2}$`)
	reCurrency    = regexp.MustCompile(`^[A-Z]{3}$`)
	reBase64      = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)
	reHostname    = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)
)

// isIPv4Valid rejects octets above 255, which the loose regexp above admits.
func isIPv4Valid(s string) bool {
	if !reIPv4.MatchString(s) {
		return false
	}
	octet := 0
	digits := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '.' {
			if digits == 0 || digits > 3 {
				return false
			}
			if octet > 255 {
				return false
			}
			octet = 0
			digits = 0
			continue
		}
		octet = octet*10 + int(s[i]-'0')
		digits++
	}
	return true
}

// precedence is evaluated top-to-bottom; the first match wins. Order is a
// deliberate design decision that resolves overlaps such as a datetime
// string also satisfying the date prefix.
var precedence = []detector{
	{UUID, reUUID.MatchString},
	{DateTime, reDateTime.MatchString},
	{Date, reDate.MatchString},
	{Time, reTime.MatchString},
	{Email, reEmail.MatchString},
	{URI, reURI.MatchString},
	{IPv4, isIPv4Valid},
	{IPv6, func(s string) bool {
		return len(s) >= 2 && reIPv6.MatchString(s) && !isIPv4Valid(s)
	}},
	{Semver, reSemver.MatchString},
	{Phone, func(s string) bool {
		return len(s) >= 8 && len(s) <= 15 && rePhone.MatchString(s)
	}},
	{CountryCode, reCountryCode.MatchString},
	{CurrencyCode, reCurrency.MatchString},
	{Base64, func(s string) bool {
		return len(s) >= 4 && len(s)%4 == 0 && reBase64.MatchString(s)
	}},
	{Hostname, func(s string) bool {
		return strings.Contains(s, ".") && reHostname.MatchString(s)
	}},
}

// Detect classifies s into the first matching Format in precedence order.
// An empty (after trimming) string always yields None.
func Detect(s string) Format {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return None
	}
	for _, d := range precedence {
		if d.match(trimmed) {
			return d.format
		}
	}
	return None
}

// Confidence returns the fraction of values whose detected format equals f.
// An empty values slice yields a confidence of 0.
func Confidence(values []string, f Format) float64 {
	if len(values) == 0 {
		return 0
	}
	matches := 0
	for _, v := range values {
		if Detect(v) == f {
			matches++
		}
	}
	return float64(matches) / float64(len(values))
}
