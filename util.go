package sdk

// StringPtr is a convenience helper for optional string fields such as the
// ones on BookUpdate.
func StringPtr(s string) *string { return &s }

// BoolPtr is a convenience helper for optional boolean fields.
func BoolPtr(b bool) *bool { return &b }
