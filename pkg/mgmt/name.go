package mgmt

const (
	// MaxNameLength is the longest adapter name that fits in Set Local Name
	// with room for its terminating NUL.
	MaxNameLength = 248
	// MaxShortNameLength is the longest adapter short name, excluding its NUL.
	MaxShortNameLength = 10
)

// TruncateName returns name cut to MaxNameLength bytes. Truncation is byte-wise
// and may split a multi-byte rune.
func TruncateName(name string) string {
	return truncate(name, MaxNameLength)
}

// TruncateShortName returns name cut to MaxShortNameLength bytes.
func TruncateShortName(name string) string {
	return truncate(name, MaxShortNameLength)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
