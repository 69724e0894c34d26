package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses {
		got, err := ParseStatus(string(s))
		assert.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseStatus("Approved")
	var ise *InvalidStatusError
	assert.True(t, errors.As(err, &ise))
	assert.Equal(t, "Approved", ise.Value)
}

func TestRegionValid(t *testing.T) {
	assert.True(t, RegionVisayas.Valid())
	assert.False(t, Region("ncr").Valid())
	assert.False(t, Region("").Valid())
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Jose Rizal", Registration{FirstName: "Jose", Surname: "Rizal"}.FullName())
}
