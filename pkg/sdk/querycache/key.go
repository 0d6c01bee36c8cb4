package querycache

import (
	"fmt"
	"strconv"
)

// Cached resources.
const (
	ResourceUsers           = "users"
	ResourcePatients        = "patients"
	ResourceDiseases        = "diseases"
	ResourcePatientDiseases = "patient-diseases"
	ResourceAI              = "ai"
)

// Key addresses one cache entry: a resource and an optional sub-key.
type Key struct {
	Resource string
	Sub      string
}

func (k Key) String() string {
	if k.Sub == "" {
		return k.Resource
	}
	return k.Resource + "/" + k.Sub
}

// ListKey addresses the full collection of resource.
func ListKey(resource string) Key {
	return Key{Resource: resource, Sub: "list"}
}

// EntityKey addresses one entity of resource.
func EntityKey(resource string, id int64) Key {
	return Key{Resource: resource, Sub: "id:" + strconv.FormatInt(id, 10)}
}

// PageKey addresses one page of a paginated resource.
func PageKey(resource string, skip, limit int) Key {
	return Key{Resource: resource, Sub: fmt.Sprintf("page:%d:%d", skip, limit)}
}

// NamedKey addresses a named view of resource, e.g. doctors or history.
func NamedKey(resource, name string) Key {
	return Key{Resource: resource, Sub: name}
}
