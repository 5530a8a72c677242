package models

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResponse(t *testing.T) {
	testData := map[string]string{"key": "value"}

	before := time.Now().UnixNano() / int64(time.Millisecond)
	response := NewResponse(http.StatusAccepted, testData, "Accepted")
	after := time.Now().UnixNano() / int64(time.Millisecond)

	assert.Equal(t, http.StatusAccepted, response.Code)
	assert.Equal(t, testData, response.Data)
	assert.Equal(t, "Accepted", response.Text)
	assert.Equal(t, 2, response.Version)
	assert.GreaterOrEqual(t, response.CurrentTime, before)
	assert.LessOrEqual(t, response.CurrentTime, after)
}

func TestNewEntryResponse(t *testing.T) {
	entry := map[string]string{"busId": "1", "name": "Express Line"}

	response := NewEntryResponse(entry)

	assert.Equal(t, http.StatusOK, response.Code)
	assert.Equal(t, "OK", response.Text)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok, "Response data should be a map")
	assert.Equal(t, entry, data["entry"])
}

func TestNewListResponse(t *testing.T) {
	list := []string{"item1", "item2"}

	response := NewListResponse(list)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, list, data["list"])
}

func TestNewCreatedResponse(t *testing.T) {
	response := NewCreatedResponse(struct{}{})
	assert.Equal(t, http.StatusCreated, response.Code)
	assert.Equal(t, "Created", response.Text)
}

func TestResponseModelJSON(t *testing.T) {
	response := NewOKResponse(map[string]string{"test": "data"})

	body, err := json.Marshal(response)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))

	assert.EqualValues(t, 200, decoded["code"])
	assert.Equal(t, "OK", decoded["text"])
	assert.EqualValues(t, 2, decoded["version"])
	assert.Contains(t, decoded, "currentTime")
	assert.Equal(t, map[string]interface{}{"test": "data"}, decoded["data"])
}
