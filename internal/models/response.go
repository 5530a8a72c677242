package models

import (
	"net/http"
	"time"
)

// ResponseModel Base response structure that can be reused
type ResponseModel struct {
	Code        int         `json:"code"`
	CurrentTime int64       `json:"currentTime"`
	Data        interface{} `json:"data"`
	Text        string      `json:"text"`
	Version     int         `json:"version"`
}

// ResponseCurrentTime is the envelope timestamp in epoch milliseconds.
func ResponseCurrentTime() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

func NewResponse(code int, data interface{}, text string) ResponseModel {
	return ResponseModel{
		Code:        code,
		CurrentTime: ResponseCurrentTime(),
		Data:        data,
		Text:        text,
		Version:     2,
	}
}

func NewOKResponse(data interface{}) ResponseModel {
	return NewResponse(http.StatusOK, data, "OK")
}

// NewEntryResponse wraps a single record as data.entry.
func NewEntryResponse(entry interface{}) ResponseModel {
	data := map[string]interface{}{
		"entry": entry,
	}
	return NewOKResponse(data)
}

// NewListResponse wraps a collection as data.list. A nil slice is still
// encoded by the caller, so handlers pass empty slices for empty results.
func NewListResponse(list interface{}) ResponseModel {
	data := map[string]interface{}{
		"list": list,
	}
	return NewOKResponse(data)
}

// NewCreatedResponse wraps a newly stored record as data.entry with 201.
func NewCreatedResponse(entry interface{}) ResponseModel {
	data := map[string]interface{}{
		"entry": entry,
	}
	return NewResponse(http.StatusCreated, data, "Created")
}
