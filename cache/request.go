package cache

import (
	"context"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vvakame/normcache/internal/log"
	"github.com/vvakame/normcache/internal/structural"
	"github.com/vvakame/normcache/internal/validate"
)

// Operation identifies one operation definition inside a parsed document,
// the operation-level counterpart of Fragment.
type Operation struct {
	document      *ast.QueryDocument
	operationName string
	serializedDoc string
}

// NewOperation wraps an operation definition from document. operationName
// may be empty when the document contains exactly one operation.
func NewOperation(document *ast.QueryDocument, operationName string) *Operation {
	return &Operation{
		document:      document,
		operationName: operationName,
		serializedDoc: formatDocument(document),
	}
}

// Document returns the underlying parsed document. Callers must not mutate it.
func (op *Operation) Document() *ast.QueryDocument {
	return op.document
}

// OperationName returns the operation name, or "" for a singular document.
func (op *Operation) OperationName() string {
	return op.operationName
}

// Equal compares documents by canonical serialized form, like Fragment.Equal.
func (op *Operation) Equal(other *Operation) bool {
	if op == other {
		return true
	}
	if op == nil || other == nil {
		return false
	}
	return structural.Equals(op.identity(), other.identity())
}

// Hash returns a hash consistent with Equal.
func (op *Operation) Hash() uint64 {
	return structural.Hash(op.identity())
}

func (op *Operation) identity() []interface{} {
	if op == nil {
		return nil
	}
	return []interface{}{op.serializedDoc, op.operationName}
}

func (op *Operation) String() string {
	return fmt.Sprintf("Operation(document: %s, operationName: %s)", op.serializedDoc, op.operationName)
}

// AsRequest attaches variables to the operation, forming one addressable
// cache operation. Pure builder.
func (op *Operation) AsRequest(variables map[string]interface{}) *Request {
	return NewRequest(op, variables)
}

// Request pairs an Operation with variables: the operation-level analog of
// FragmentRequest. Immutable.
type Request struct {
	operation *Operation
	variables map[string]interface{}
}

// NewRequest builds a request for operation. variables may be nil.
func NewRequest(operation *Operation, variables map[string]interface{}) *Request {
	if variables == nil {
		variables = map[string]interface{}{}
	}
	return &Request{
		operation: operation,
		variables: variables,
	}
}

// Operation returns the backing operation, shared across requests.
func (r *Request) Operation() *Operation {
	return r.operation
}

// Variables returns the request variables. Callers must not mutate the map.
func (r *Request) Variables() map[string]interface{} {
	return r.variables
}

// Equal compares the ordered pair (operation, variables).
func (r *Request) Equal(other *Request) bool {
	if r == other {
		return true
	}
	if r == nil || other == nil {
		return false
	}
	return r.operation.Equal(other.operation) &&
		structural.Equals(r.variables, other.variables)
}

// Hash returns a hash consistent with Equal.
func (r *Request) Hash() uint64 {
	return structural.Hash([]interface{}{
		r.operation.identity(),
		r.variables,
	})
}

func (r *Request) String() string {
	return fmt.Sprintf("Request(operation: %s, variables: %v)", r.operation, r.variables)
}

// ValidatesStructureOf reports whether data structurally matches the shape
// the operation selects. Same contract as FragmentRequest: never panics,
// every failure degrades to false.
func (r *Request) ValidatesStructureOf(ctx context.Context, data map[string]interface{}) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.FromContext(ctx).V(1).Info("operation structure validation panicked", "recovered", rec)
			ok = false
		}
	}()

	gErr := validate.OperationDataStructure(ctx, r.operation.Document(), r.operation.OperationName(), r.variables, data)
	if gErr != nil {
		log.FromContext(ctx).V(1).Info("operation structure validation failed", "reason", gErr.Message)
		return false
	}
	return true
}
