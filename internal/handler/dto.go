package handler

type GeneratePostRequest struct {
	Topic string `json:"topic"`
}

type PostResponse struct {
	Title           string `json:"title"`
	MetaDescription string `json:"meta_description"`
	PostContent     string `json:"post_content"`
}

type ProcessingResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}

type JobResponse struct {
	ID        string        `json:"id"`
	Topic     string        `json:"topic"`
	Status    string        `json:"status"`
	Result    *PostResponse `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
	CreatedAt string        `json:"created_at"`
	UpdatedAt string        `json:"updated_at"`
}

type UsageResponse struct {
	ApiName      string `json:"api_name"`
	UsageDate    string `json:"usage_date"`
	RequestCount int    `json:"request_count"`
	TokenCount   int64  `json:"token_count"`
}
