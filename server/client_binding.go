package server

import (
	"net"
	"net/http"

	"github.com/jrsteele09/go-handoff-server/internal/utils"
)

const (
	clientBindingHeader  = "X-Tasklight-Client"
	unknownClientBinding = "unknown"
)

// clientBinding identifies the app instance driving a handoff: the app's own
// header when sent, otherwise the caller's network address.
func clientBinding(r *http.Request) *string {
	if binding := utils.NonBlank(r.Header.Get(clientBindingHeader)); binding != nil {
		return binding
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if binding := utils.NonBlank(host); binding != nil {
		return binding
	}
	return utils.Ptr(unknownClientBinding)
}
