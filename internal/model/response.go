package model

import "encoding/json"

// APIResponse is the envelope the portal writes to its own callers.
type APIResponse struct {
	Success  bool      `json:"success"`
	Data     any       `json:"data,omitempty"`
	Error    *APIError `json:"error,omitempty"`
	Redirect string    `json:"redirect,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Backend result codes. Zero is the only failure value the backend emits.
const (
	CodeFailure = 0
	CodeSuccess = 1
)

// Envelope is the backend response body: {"code":1,"msg":"success","data":...}.
type Envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data,omitempty"`
}

// LoginPayload is the data object of a successful login.
type LoginPayload struct {
	Token  string `json:"token"`
	UserID int64  `json:"userId,omitempty"`
	User   *User  `json:"user,omitempty"`
}

type Page[T any] struct {
	Total    int64 `json:"total"`
	Rows     []T   `json:"rows"`
	Page     int   `json:"page,omitempty"`
	PageSize int   `json:"pageSize,omitempty"`
}

// ImportReport summarises a spreadsheet batch import. Errors are per-row
// messages such as "Row 3: Username 'bob' already exists".
type ImportReport struct {
	Total   int      `json:"total"`
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

type TrendPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type TeacherStats struct {
	TotalStudents  int64 `json:"totalStudents"`
	TotalGroups    int64 `json:"totalGroups"`
	ActiveTasks    int64 `json:"activeTasks"`
	CompletedTasks int64 `json:"completedTasks"`
}

// Activity is a free-form dashboard feed entry.
type Activity map[string]any
