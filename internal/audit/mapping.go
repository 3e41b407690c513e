package audit

import (
	"strings"
	"unicode"
)

// ActionResource is the audit action/resource pair derived from a gRPC method.
type ActionResource struct {
	Action   string
	Resource string
}

// ParseFullMethod derives an audit action and resource from a gRPC full
// method name such as "/clubqueue.membership.v1.MembershipService/AddMember".
// The resource is the service name without the "Service" suffix, lowercased;
// the action is "<resource>.<method>" with the method in snake_case. Unknown
// shapes fall back to the raw method name.
func ParseFullMethod(fullMethod string) ActionResource {
	trimmed := strings.TrimPrefix(fullMethod, "/")
	slash := strings.LastIndex(trimmed, "/")
	if slash < 0 {
		return ActionResource{Action: trimmed, Resource: trimmed}
	}
	servicePath, method := trimmed[:slash], trimmed[slash+1:]

	service := servicePath
	if dot := strings.LastIndex(servicePath, "."); dot >= 0 {
		service = servicePath[dot+1:]
	}
	resource := strings.ToLower(strings.TrimSuffix(service, "Service"))
	if resource == "" {
		resource = strings.ToLower(service)
	}
	return ActionResource{
		Action:   resource + "." + toSnake(method),
		Resource: resource,
	}
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
