package transport

// Result codes carried next to the HTTP status.
const (
	CodeOK              = 1
	CodeFailure         = -1
	CodeDuplicateName   = -2
	CodeMissingOptions  = -3
	CodeMissingImages   = -4
	CodeValidation      = -5
	CodeNotFound        = -6
	CodeGateway         = -7
	CodeConflict        = -8
	CodePaymentUnknown  = -9
	CodeUnauthenticated = -10
	CodeForbidden       = -11
)

type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

func OK(data any) Response {
	return Response{Code: CodeOK, Data: data}
}

func Fail(code int, msg string) Response {
	return Response{Code: code, Message: msg, Data: nil}
}
