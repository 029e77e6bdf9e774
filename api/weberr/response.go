package weberr

import "errors"

type responder interface {
	Response() (body interface{}, status int)
}

// Response returns the body and status carried by any error in the chain.
// Errors without one fall through to a generic 500.
func Response(err error) (body interface{}, status int, ok bool) {
	var re responder
	if errors.As(err, &re) {
		body, code := re.Response()
		return body, code, true
	}
	return nil, 0, false
}

type responseError struct {
	error
	body   interface{}
	status int
}

func (e *responseError) Response() (interface{}, int) {
	return e.body, e.status
}

func (e *responseError) Unwrap() error {
	return e.error
}
