package response

// ResponseModel is the envelope every JSON endpoint answers with.
type ResponseModel struct {
	RetCode string      `json:"retCode"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
