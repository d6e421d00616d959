package cache

import (
	"context"
	"fmt"

	"github.com/vvakame/normcache/internal/log"
	"github.com/vvakame/normcache/internal/structural"
	"github.com/vvakame/normcache/internal/validate"
)

// FragmentRequest is a fragment evaluated against identifying key fields
// and variables: one concrete cache read/write unit. Immutable.
type FragmentRequest struct {
	fragment  *Fragment
	variables map[string]interface{}
	idFields  map[string]interface{}
}

// NewFragmentRequest builds a request for fragment. idFields must contain
// at least the identifying key of the entity, conventionally a __typename
// plus an id. variables may be nil.
func NewFragmentRequest(fragment *Fragment, idFields map[string]interface{}, variables map[string]interface{}) *FragmentRequest {
	if variables == nil {
		variables = map[string]interface{}{}
	}
	return &FragmentRequest{
		fragment:  fragment,
		variables: variables,
		idFields:  idFields,
	}
}

// Fragment returns the backing fragment, shared across requests.
func (fr *FragmentRequest) Fragment() *Fragment {
	return fr.fragment
}

// Variables returns the request variables. Callers must not mutate the map.
func (fr *FragmentRequest) Variables() map[string]interface{} {
	return fr.variables
}

// IDFields returns the identifying key fields. Callers must not mutate the map.
func (fr *FragmentRequest) IDFields() map[string]interface{} {
	return fr.idFields
}

// Equal compares the ordered triple (fragment, variables, idFields),
// structurally at every level.
func (fr *FragmentRequest) Equal(other *FragmentRequest) bool {
	if fr == other {
		return true
	}
	if fr == nil || other == nil {
		return false
	}
	return fr.fragment.Equal(other.fragment) &&
		structural.Equals(fr.variables, other.variables) &&
		structural.Equals(fr.idFields, other.idFields)
}

// Hash returns a hash consistent with Equal, folding the triple in the same
// fixed order the equality contract names.
func (fr *FragmentRequest) Hash() uint64 {
	return structural.Hash([]interface{}{
		fr.fragment.identity(),
		fr.variables,
		fr.idFields,
	})
}

// String omits idFields. The asymmetry with Equal is intentional: the
// printed form describes what is requested, not which entity.
func (fr *FragmentRequest) String() string {
	return fmt.Sprintf("FragmentRequest(fragment: %s, variables: %v)", fr.fragment, fr.variables)
}

// ValidatesStructureOf reports whether data structurally matches the shape
// the fragment selects. It never panics and never returns an error: any
// validation failure, including malformed data, degrades to false.
func (fr *FragmentRequest) ValidatesStructureOf(ctx context.Context, data map[string]interface{}) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.FromContext(ctx).V(1).Info("fragment structure validation panicked", "recovered", r)
			ok = false
		}
	}()

	gErr := validate.FragmentDataStructure(ctx, fr.fragment.Document(), fr.fragment.FragmentName(), fr.variables, data)
	if gErr != nil {
		log.FromContext(ctx).V(1).Info("fragment structure validation failed", "reason", gErr.Message)
		return false
	}
	return true
}
