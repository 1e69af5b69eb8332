package jira

import (
	"bytes"
	"encoding/json"
)

// jsonID decodes an identifier the remote API sends either as a number or as a string.
type jsonID string

func (id *jsonID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = jsonID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = jsonID(n.String())
	return nil
}
