// Package cache provides the identity model for cache-addressable units in
// a normalized GraphQL client cache: fragments, fragment requests and
// operation requests. Values in this package are immutable after
// construction and carry a structural Equal/Hash pair, so they serve as
// cache keys for memoization and request deduplication.
package cache

import (
	"bytes"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vvakame/normcache/internal/structural"
)

// Fragment identifies one fragment definition inside a parsed document.
// The document is treated as immutable once handed to NewFragment; the same
// Fragment may back many FragmentRequests concurrently.
type Fragment struct {
	document      *ast.QueryDocument
	fragmentName  string
	serializedDoc string
}

// NewFragment wraps a fragment definition from document. fragmentName may
// be empty when the document contains exactly one fragment definition;
// with multiple definitions it must be provided. That rule is not checked
// here, it surfaces when the document is interpreted, e.g. by
// ValidatesStructureOf.
func NewFragment(document *ast.QueryDocument, fragmentName string) *Fragment {
	return &Fragment{
		document:      document,
		fragmentName:  fragmentName,
		serializedDoc: formatDocument(document),
	}
}

// Document returns the underlying parsed document. Callers must not mutate it.
func (f *Fragment) Document() *ast.QueryDocument {
	return f.document
}

// FragmentName returns the fragment name, or "" for a singular document.
func (f *Fragment) FragmentName() string {
	return f.fragmentName
}

// Equal reports whether other identifies the same fragment. Documents are
// compared by canonical serialized form, so two independently parsed but
// textually identical documents compare equal.
func (f *Fragment) Equal(other *Fragment) bool {
	if f == other {
		return true
	}
	if f == nil || other == nil {
		return false
	}
	return structural.Equals(f.identity(), other.identity())
}

// Hash returns a hash consistent with Equal.
func (f *Fragment) Hash() uint64 {
	return structural.Hash(f.identity())
}

func (f *Fragment) identity() []interface{} {
	if f == nil {
		return nil
	}
	return []interface{}{f.serializedDoc, f.fragmentName}
}

func (f *Fragment) String() string {
	return fmt.Sprintf("Fragment(document: %s, fragmentName: %s)", f.serializedDoc, f.fragmentName)
}

// AsRequest pairs the fragment with the identifying key fields that locate
// the entity in the normalized cache, plus optional variables. Pure builder.
func (f *Fragment) AsRequest(idFields map[string]interface{}, variables map[string]interface{}) *FragmentRequest {
	return NewFragmentRequest(f, idFields, variables)
}

// formatDocument prints a document to its canonical textual form, the basis
// for document equality.
func formatDocument(document *ast.QueryDocument) string {
	if document == nil {
		return ""
	}
	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatQueryDocument(document)
	return buf.String()
}
