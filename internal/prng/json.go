package prng

import "encoding/json"

type wireState struct {
	S0 uint64 `json:"s0"`
	S1 uint64 `json:"s1"`
	S2 uint64 `json:"s2"`
	S3 uint64 `json:"s3"`
}

// MarshalJSON serializes the raw state so a restored Stream continues
// identically to the original.
func (s *Stream) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireState{S0: s.s[0], S1: s.s[1], S2: s.s[2], S3: s.s[3]})
}

// UnmarshalJSON restores state captured by MarshalJSON.
func (s *Stream) UnmarshalJSON(data []byte) error {
	var w wireState
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.s = [4]uint64{w.S0, w.S1, w.S2, w.S3}
	return nil
}
