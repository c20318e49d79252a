package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_CopiesData(t *testing.T) {
	data := map[string]string{"name": "Anna"}
	rec := New("anna", data)

	data["name"] = "Bea"

	assert.Equal(t, "Anna", rec.Data["name"])
	assert.Equal(t, "anna", rec.Slug)
	assert.Zero(t, rec.Version)
}

func TestClone_Detached(t *testing.T) {
	rec := New("anna", map[string]string{"name": "Anna"})

	clone := rec.Clone()
	clone.Data["name"] = "Bea"

	assert.Equal(t, "Anna", rec.Data["name"])
}

func TestApply_ReplacesDataMap(t *testing.T) {
	rec := New("anna", map[string]string{"name": "Anna", "species": "human"})
	original := rec.Data

	rec.Apply(map[string]*string{"species": nil})

	assert.Equal(t, map[string]string{"name": "Anna"}, rec.Data)
	// the pre-merge map is untouched
	assert.Equal(t, map[string]string{"name": "Anna", "species": "human"}, original)
}
