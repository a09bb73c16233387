// Package reference serves the static lookup data shipped with the binary.
package reference

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed data/*.json
var files embed.FS

type District struct {
	ID         string `json:"id"`
	DivisionID string `json:"division_id"`
	Name       string `json:"name"`
}

type Upazila struct {
	ID         string `json:"id"`
	DistrictID string `json:"district_id"`
	Name       string `json:"name"`
}

type Recommendation struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Data is read-only after Load and safe for concurrent use.
type Data struct {
	districts       []District
	upazilas        []Upazila
	recommendations []Recommendation
}

func Load() (*Data, error) {
	d := &Data{}
	if err := decode("data/districts.json", &d.districts); err != nil {
		return nil, err
	}
	if err := decode("data/upazilas.json", &d.upazilas); err != nil {
		return nil, err
	}
	if err := decode("data/recommendations.json", &d.recommendations); err != nil {
		return nil, err
	}
	return d, nil
}

func decode(name string, v any) error {
	raw, err := files.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (d *Data) Districts() []District { return d.districts }

func (d *Data) Recommendations() []Recommendation { return d.recommendations }

// Upazilas returns the upazilas of one district. Unknown ids yield an
// empty, non-nil slice.
func (d *Data) Upazilas(districtID string) []Upazila {
	districtID = strings.TrimSpace(districtID)
	out := make([]Upazila, 0)
	for _, u := range d.upazilas {
		if u.DistrictID == districtID {
			out = append(out, u)
		}
	}
	return out
}
