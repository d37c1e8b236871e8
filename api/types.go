package api

import (
	"github.com/dbxquery/dbxquery/core"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusOK      = "ok"
)

// MessageQueryRequired is returned when POST /query has no usable query.
const MessageQueryRequired = "Query parameter is required"

type QueryRequest struct {
	Query string `json:"query" validate:"required"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func newErrorResponse(msg string) ErrorResponse {
	return ErrorResponse{
		Status:  StatusError,
		Message: msg,
	}
}

type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	WarehouseType string `json:"warehouse_type"`
	AuthMode      string `json:"auth_mode"`
	// Profile is only reported in profile auth mode.
	Profile string `json:"profile,omitempty"`
}

type QueryResponse struct {
	Status   string           `json:"status"`
	Data     []map[string]any `json:"data"`
	RowCount int              `json:"row_count"`
	Columns  core.Header      `json:"columns"`
	// SQL is set when the statement was generated by the server.
	SQL string `json:"sql,omitempty"`
}

func newQueryResponse(result *core.Result, sql string) QueryResponse {
	return QueryResponse{
		Status:   StatusSuccess,
		Data:     result.Records(),
		RowCount: result.Len(),
		Columns:  result.Header(),
		SQL:      sql,
	}
}

type SchemaResponse struct {
	Status string           `json:"status"`
	Table  string           `json:"table"`
	Schema []map[string]any `json:"schema"`
}
