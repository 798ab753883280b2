package router

import (
	"encoding/json"

	"github.com/cookieport/cookieport/internal/cookies"
)

// Response is the single reply to a request. A successful fetch carries
// Cookies; a successful export or import carries Message; a failure
// carries Error.
type Response struct {
	Success bool             `json:"success"`
	Cookies []cookies.Record `json:"cookies,omitempty"`
	Message string           `json:"message,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// Failure converts err into a failure response.
func Failure(err error) Response {
	return Response{Error: err.Error()}
}

// MarshalJSON writes only the fields that belong to the response kind. A
// fetch that found nothing still writes "cookies": [].
func (r Response) MarshalJSON() ([]byte, error) {
	switch {
	case !r.Success:
		return json.Marshal(struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}{false, r.Error})
	case r.Cookies != nil:
		return json.Marshal(struct {
			Success bool             `json:"success"`
			Cookies []cookies.Record `json:"cookies"`
		}{true, r.Cookies})
	default:
		return json.Marshal(struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		}{true, r.Message})
	}
}
