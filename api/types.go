package api

// Item is the two-field object accepted and echoed by POST /post. Empty
// strings are valid values; only a missing or null field is rejected.
type Item struct {
	Field1 string `json:"field1" form:"field1"`
	Field2 string `json:"field2" form:"field2"`
}

// ErrorDetail locates one validation failure, e.g.
// {"loc": ["body", "field2"], "msg": "field required", "type": "value_error.missing"}.
type ErrorDetail struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ErrorResponse is returned by the demo api with a 422 status.
type ErrorResponse struct {
	Detail []ErrorDetail `json:"detail"`
}
