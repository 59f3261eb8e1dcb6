package web

import (
	"sheetsearch/stats"
)

// Control is the form input for one column.
type Control struct {
	Index   int
	Name    string
	Kind    string
	Op      string
	Value   string
	Pattern string
}

type DisplayData struct {
	ID          string
	FileName    string
	FileSize    int64
	Headers     []string
	Rows        [][]string
	NumericCols []int
	RowCount    int
	TotalRows   int
	Truncated   bool

	Search     string
	Controls   []Control
	Ops        []string
	Operations []string
	Operation  string
}

type ResultPage struct {
	DisplayData
	Results   []stats.Result
	Timestamp string
}

type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIQuery is the JSON body of a query request.
type APIQuery struct {
	Search  string               `json:"search"`
	Filters map[string]APIFilter `json:"filters"`
	Summary string               `json:"summary,omitempty"`
}

// APIFilter configures one column: Op and Value for numeric and date columns, Pattern for text.
type APIFilter struct {
	Op      string `json:"op,omitempty"`
	Value   any    `json:"value,omitempty"`
	Pattern string `json:"pattern,omitempty"`
}

type APIResult struct {
	Headers []string       `json:"headers"`
	Kinds   []string       `json:"kinds"`
	Rows    [][]string     `json:"rows"`
	Count   int            `json:"count"`
	Total   int            `json:"total"`
	Summary []stats.Result `json:"summary,omitempty"`
}
