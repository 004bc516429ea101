package ptr

func To[T any](v T) *T {
	return &v
}

func String(s string) *string {
	return &s
}

// StringOrNil returns nil for the empty string so optional JSON fields are omitted.
func StringOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
