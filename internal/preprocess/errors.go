package preprocess

import "fmt"

// PreprocessError reports descriptor state that cannot be turned into code.
type PreprocessError struct {
	Pass string
	Msg  string
	Err  error
}

func (e *PreprocessError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Pass != "" {
		return fmt.Sprintf("preprocess: pass %s: %s", e.Pass, msg)
	}
	return "preprocess: " + msg
}

func (e *PreprocessError) Unwrap() error { return e.Err }
