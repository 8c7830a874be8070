package logger

// Standard field key constants for structured engine logging.
const (
	FieldComponent = "component"
	FieldCallable  = "callable"
	FieldCallSite  = "call_site"
	FieldContextID = "context_id"
	FieldFile      = "file"
	FieldLine      = "line"
	FieldAttempt   = "attempt"
	FieldLimit     = "limit"
	FieldErrorType = "error_type"
	FieldError     = "error"
	FieldStatus    = "status"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Error("attempt failed", logger.Fields("attempt", 2, "limit", 3))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for a failed attempt.
func ErrorFields(callable string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldCallable: callable,
		FieldError:    err.Error(),
	}
}

// MergeWithError adds an error field to an existing map.
func MergeWithError(fields map[string]interface{}, err error) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields[FieldError] = err.Error()
	return fields
}
