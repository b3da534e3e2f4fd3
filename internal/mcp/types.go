package mcp

// ListPlacementsInput is the input for the list_placements tool.
type ListPlacementsInput struct{}

// PlacementInfo describes one recorded placement.
type PlacementInfo struct {
	Key    string `json:"key"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ListPlacementsOutput is the output for the list_placements tool.
type ListPlacementsOutput struct {
	Placements []PlacementInfo `json:"placements"`
}

// StoreWindowInput is the input for the store_window tool.
type StoreWindowInput struct {
	Key   string `json:"key" jsonschema:"required,Placement key to record the window geometry under"`
	Title string `json:"title,omitempty" jsonschema:"Substring of the window title to locate the window. When empty the currently focused window is used."`
}

// StoreWindowOutput is the output for the store_window tool.
type StoreWindowOutput struct {
	Key    string `json:"key"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Saved  bool   `json:"saved"`
}

// RestoreWindowInput is the input for the restore_window tool.
type RestoreWindowInput struct {
	Key          string `json:"key" jsonschema:"required,Placement key whose geometry is applied"`
	Title        string `json:"title,omitempty" jsonschema:"Substring of the window title to locate the window. When empty the currently focused window is used."`
	PositionOnly bool   `json:"position_only,omitempty" jsonschema:"When true only the stored position is applied and the window keeps its current size"`
}

// RestoreWindowOutput is the output for the restore_window tool.
type RestoreWindowOutput struct {
	Key      string `json:"key"`
	Restored bool   `json:"restored"`
}

// SavePlacementsInput is the input for the save_placements tool.
type SavePlacementsInput struct{}

// SavePlacementsOutput is the output for the save_placements tool.
type SavePlacementsOutput struct {
	Keys int `json:"keys"`
}
