package portal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// flexID tolerates the portal serializing identifiers as either JSON
// strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

func (f flexID) String() string { return string(f) }

type businessNowResponse struct {
	Data []struct {
		Business *business `json:"business"`
	} `json:"data"`
}

type business struct {
	ID               flexID             `json:"id"`
	EndTime          string             `json:"endTime"`
	BusinessTimeList []businessTimeNode `json:"businessTimeList"`
}

type businessTimeNode struct {
	NodeID    string `json:"nodeId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// ownerNode locates the sub-node the portal attributes to the form
// owner within the business time list.
func (b business) ownerNode() (businessTimeNode, bool) {
	for _, node := range b.BusinessTimeList {
		if node.NodeID == "owner" {
			return node, true
		}
	}
	return businessTimeNode{}, false
}

type formInstanceResponse struct {
	Data *formInstance `json:"data"`
}

type formInstance struct {
	ID       flexID            `json:"id"`
	Editable *bool             `json:"editable"`
	FormData []json.RawMessage `json:"formData"`
}

// submitRequest is the body posted to the form submission endpoint. The
// field list is round-tripped from the fetched instance so unknown keys
// survive verbatim.
type submitRequest struct {
	FormData []json.RawMessage `json:"formData"`
	PlayerID string            `json:"playerId"`
}

type submitResponse struct {
	Data *struct {
		FormData []json.RawMessage `json:"formData"`
	} `json:"data"`
	FormData []json.RawMessage `json:"formData"`
}

func (r submitResponse) echoedFormData() []json.RawMessage {
	if r.Data != nil && len(r.Data.FormData) > 0 {
		return r.Data.FormData
	}
	return r.FormData
}

type fieldValue struct {
	StringValue string `json:"stringValue"`
}

// fieldName extracts the stable field identifier from a raw form field.
func fieldName(raw json.RawMessage) (string, error) {
	var field struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &field); err != nil {
		return "", fmt.Errorf("decode form field: %w", err)
	}
	return field.Name, nil
}

// fieldStringValue extracts value.stringValue from a raw form field.
func fieldStringValue(raw json.RawMessage) (string, error) {
	var field struct {
		Value fieldValue `json:"value"`
	}
	if err := json.Unmarshal(raw, &field); err != nil {
		return "", fmt.Errorf("decode form field value: %w", err)
	}
	return field.Value.StringValue, nil
}

// setFieldValue replaces the value of a raw form field while keeping
// every other key verbatim.
func setFieldValue(raw json.RawMessage, value string) (json.RawMessage, error) {
	var field map[string]json.RawMessage
	if err := json.Unmarshal(raw, &field); err != nil {
		return nil, fmt.Errorf("decode form field: %w", err)
	}

	encoded, err := json.Marshal(fieldValue{StringValue: value})
	if err != nil {
		return nil, fmt.Errorf("encode form field value: %w", err)
	}
	field["value"] = encoded

	patched, err := json.Marshal(field)
	if err != nil {
		return nil, fmt.Errorf("encode form field: %w", err)
	}
	return patched, nil
}

var portalTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parsePortalTime parses the loosely formatted timestamps the portal
// embeds in business payloads.
func parsePortalTime(value string, loc *time.Location) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range portalTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	// Some deployments emit epoch milliseconds.
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms > 0 {
		return time.UnixMilli(ms).In(loc), true
	}
	return time.Time{}, false
}
