package models

// BaseResponse wraps every successful JSON payload returned by the API.
type BaseResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
	Msg   string `json:"msg"`
}
