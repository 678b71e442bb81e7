package utils

// MaskSecret keeps the first four characters of s at most. Short secrets
// are masked entirely; an empty one stays empty.
func MaskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "*****"
	default:
		return s[:4] + "*****"
	}
}
