package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	d, err := Load()
	require.NoError(t, err)

	assert.Len(t, d.Districts(), 64)
	assert.NotEmpty(t, d.Recommendations())

	seen := map[string]bool{}
	for _, dist := range d.Districts() {
		assert.False(t, seen[dist.ID], "duplicate district id %s", dist.ID)
		seen[dist.ID] = true
	}
	for _, u := range d.upazilas {
		assert.True(t, seen[u.DistrictID], "upazila %s points at unknown district %s", u.Name, u.DistrictID)
	}
}

func TestUpazilasByDistrict(t *testing.T) {
	d, err := Load()
	require.NoError(t, err)

	var sylhet string
	for _, dist := range d.Districts() {
		if dist.Name == "Sylhet" {
			sylhet = dist.ID
		}
	}
	require.NotEmpty(t, sylhet)

	ups := d.Upazilas(sylhet)
	assert.Len(t, ups, 13)
	for _, u := range ups {
		assert.Equal(t, sylhet, u.DistrictID)
	}

	none := d.Upazilas("9999")
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
