package routes

import "net/http"

// Route is one method/pattern/handler binding.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}
