package auth

import "strings"

// BearerScheme is the authorization scheme prefix, including the separator.
const BearerScheme = "Bearer "

// ParseBearer extracts the token from an Authorization header value. A
// missing header, a different scheme or an empty token is ErrMissingCredential.
func ParseBearer(header string) (string, error) {
	rest, ok := strings.CutPrefix(header, BearerScheme)
	if !ok {
		return "", ErrMissingCredential
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", ErrMissingCredential
	}

	return fields[0], nil
}
