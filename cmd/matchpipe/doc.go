package main

import "encoding/json"

// unmarshalDoc decodes a stored document body into dst.
func unmarshalDoc(raw json.RawMessage, dst any) error {
	return json.Unmarshal(raw, dst)
}
