package voxel

import "encoding/json"

type wireWorld struct {
	SizeX int32  `json:"size_x"`
	SizeY int32  `json:"size_y"`
	SizeZ int32  `json:"size_z"`
	Cells []Type `json:"cells"`
}

// MarshalJSON serializes the world's full flat cell array.
func (w *World) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireWorld{SizeX: w.SizeX, SizeY: w.SizeY, SizeZ: w.SizeZ, Cells: w.cells})
}

// UnmarshalJSON restores a world captured by MarshalJSON.
func (w *World) UnmarshalJSON(data []byte) error {
	var ww wireWorld
	if err := json.Unmarshal(data, &ww); err != nil {
		return err
	}
	w.SizeX, w.SizeY, w.SizeZ = ww.SizeX, ww.SizeY, ww.SizeZ
	w.cells = ww.Cells
	return nil
}
