package dto

type CreateBugReportRequest struct {
	UserInput string `json:"user_input" binding:"required"`
}

type BugReportResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Steps           string `json:"steps"`
	ExpectedResult  string `json:"expected_result"`
	ActualResult    string `json:"actual_result"`
	FormattedReport string `json:"formatted_report"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
