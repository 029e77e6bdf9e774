// Package weberr attaches HTTP behaviors to plain errors. Handlers keep
// returning error; the Errors middleware asks the chain for a response
// body, a status and extra log fields.
package weberr

type Opt func(error) error

// Wrap layers the given behaviors onto err.
func Wrap(err error, opts ...Opt) error {
	for _, opt := range opts {
		err = opt(err)
	}
	return err
}

func WithResponse(body interface{}, status int) Opt {
	return func(err error) error {
		return &responseError{error: err, body: body, status: status}
	}
}

func WithFields(fields map[string]interface{}) Opt {
	return func(err error) error {
		return &fieldsError{error: err, fields: fields}
	}
}
