package middlewares

const (
	CtxRequestID   = "request_id"
	ctxCurrentUser = "auth.currentUser"
)
