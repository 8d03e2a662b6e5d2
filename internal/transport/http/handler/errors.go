package handler

const (
	errInternalServer  = "Internal server error"
	errTokenInvalid    = "Token is invalid or expired"
	errInvalidCronExpr = "Invalid cron expression"
	errUnknownKind     = "Unknown intention kind"
)
