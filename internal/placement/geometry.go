package placement

import "github.com/1broseidon/winplace/internal/platform"

// Map is the persisted mapping from window key to geometry. Keys are
// unique; insertion order carries no meaning.
type Map map[string]platform.Rect

// Clone returns a shallow copy of the map.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// rectRecord is the on-disk shape of a single geometry entry.
type rectRecord struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

func toRecords(m Map) map[string]rectRecord {
	out := make(map[string]rectRecord, len(m))
	for k, r := range m {
		out[k] = rectRecord{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
	}
	return out
}

func fromRecords(records map[string]rectRecord) Map {
	out := make(Map, len(records))
	for k, r := range records {
		out[k] = platform.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
	}
	return out
}
