package dto

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryFormFieldHasAColumn(t *testing.T) {
	typ := reflect.TypeOf(RegisterRequest{})
	for i := 0; i < typ.NumField(); i++ {
		name := strings.Split(typ.Field(i).Tag.Get("json"), ",")[0]
		col, ok := StorageField(name)
		require.True(t, ok, name)

		back, ok := ClientField(col)
		require.True(t, ok, col)
		assert.Equal(t, name, back)
	}
}

func TestStorageFieldAcceptsColumnNames(t *testing.T) {
	col, ok := StorageField("region_cluster")
	assert.True(t, ok)
	assert.Equal(t, "region_cluster", col)

	_, ok = StorageField("password")
	assert.False(t, ok)
}

func TestTextDecoding(t *testing.T) {
	var req struct {
		A Text `json:"a"`
		B Text `json:"b"`
		C Text `json:"c"`
		D Text `json:"d"`
		E Text `json:"e"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"  Jose ","b":20,"c":null,"d":"   ","e":20.5}`), &req))
	assert.Equal(t, Text("Jose"), req.A)
	assert.Equal(t, Text("20"), req.B)
	assert.Equal(t, Text(""), req.C)
	assert.Equal(t, Text(""), req.D)
	assert.Equal(t, Text("20.5"), req.E)
	assert.Nil(t, req.D.Ptr())
	assert.Equal(t, "Jose", *req.A.Ptr())

	assert.Error(t, json.Unmarshal([]byte(`{"a":{"x":1}}`), &req))
	assert.Error(t, json.Unmarshal([]byte(`{"a":["x"]}`), &req))
}
