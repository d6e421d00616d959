// Package validate checks whether a JSON-like data payload structurally
// matches the selection set of a fragment or operation. It answers "can the
// cache trust this payload" before a write, without needing a schema: the
// walk is driven by the document and the data itself.
package validate

import (
	"context"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vvakame/normcache/internal/log"
)

// FragmentDataStructure reports whether data matches the shape selected by
// the fragment named fragmentName in doc. fragmentName may be empty when
// the document holds exactly one fragment definition.
// A nil return means structurally valid.
func FragmentDataStructure(ctx context.Context, doc *ast.QueryDocument, fragmentName string, variables map[string]interface{}, data map[string]interface{}) *gqlerror.Error {
	if doc == nil {
		return gqlerror.Errorf("document is required")
	}

	fragment, gErr := resolveFragment(doc, fragmentName)
	if gErr != nil {
		return gErr
	}

	logger := log.FromContext(ctx)
	logger.V(1).Info("validating fragment data structure", "fragmentName", fragment.Name)

	return validateSelectionSet(doc, fragment.SelectionSet, variables, data, fragment.Name, make(map[string]struct{}))
}

// OperationDataStructure reports whether data matches the shape selected by
// the operation named operationName in doc. operationName may be empty when
// the document holds exactly one operation.
func OperationDataStructure(ctx context.Context, doc *ast.QueryDocument, operationName string, variables map[string]interface{}, data map[string]interface{}) *gqlerror.Error {
	if doc == nil {
		return gqlerror.Errorf("document is required")
	}

	operation, gErr := resolveOperation(doc, operationName)
	if gErr != nil {
		return gErr
	}

	logger := log.FromContext(ctx)
	logger.V(1).Info("validating operation data structure", "operationName", operation.Name)

	path := operation.Name
	if path == "" {
		path = string(operation.Operation)
	}

	return validateSelectionSet(doc, operation.SelectionSet, variables, data, path, make(map[string]struct{}))
}

func resolveFragment(doc *ast.QueryDocument, fragmentName string) (*ast.FragmentDefinition, *gqlerror.Error) {
	if fragmentName != "" {
		fragment := doc.Fragments.ForName(fragmentName)
		if fragment == nil {
			return nil, gqlerror.Errorf("fragment %s is not defined in document", fragmentName)
		}
		return fragment, nil
	}

	switch len(doc.Fragments) {
	case 0:
		return nil, gqlerror.Errorf("document has no fragment definitions")
	case 1:
		return doc.Fragments[0], nil
	default:
		return nil, gqlerror.Errorf("fragmentName is required when document contains multiple fragment definitions")
	}
}

func resolveOperation(doc *ast.QueryDocument, operationName string) (*ast.OperationDefinition, *gqlerror.Error) {
	if operationName != "" {
		operation := doc.Operations.ForName(operationName)
		if operation == nil {
			return nil, gqlerror.Errorf("operation %s is not defined in document", operationName)
		}
		return operation, nil
	}

	switch len(doc.Operations) {
	case 0:
		return nil, gqlerror.Errorf("document has no operation definitions")
	case 1:
		return doc.Operations[0], nil
	default:
		return nil, gqlerror.Errorf("operationName is required when document contains multiple operations")
	}
}

func validateSelectionSet(doc *ast.QueryDocument, selectionSet ast.SelectionSet, variables map[string]interface{}, data map[string]interface{}, path string, visitedFragmentNames map[string]struct{}) *gqlerror.Error {
	for _, selection := range selectionSet {
		switch selection := selection.(type) {
		case *ast.Field:
			if !shouldIncludeNode(variables, selection.Directives) {
				continue
			}
			if gErr := validateField(doc, selection, variables, data, path); gErr != nil {
				return gErr
			}

		case *ast.InlineFragment:
			if !shouldIncludeNode(variables, selection.Directives) {
				continue
			}
			if !typeConditionMayMatch(selection.TypeCondition, data) {
				continue
			}
			if gErr := validateSelectionSet(doc, selection.SelectionSet, variables, data, path, visitedFragmentNames); gErr != nil {
				return gErr
			}

		case *ast.FragmentSpread:
			if !shouldIncludeNode(variables, selection.Directives) {
				continue
			}
			if _, ok := visitedFragmentNames[selection.Name]; ok {
				continue
			}
			visitedFragmentNames[selection.Name] = struct{}{}
			fragment := doc.Fragments.ForName(selection.Name)
			if fragment == nil {
				return gqlerror.Errorf("%s: fragment %s is not defined in document", path, selection.Name)
			}
			if !typeConditionMayMatch(fragment.TypeCondition, data) {
				continue
			}
			if gErr := validateSelectionSet(doc, fragment.SelectionSet, variables, data, path, visitedFragmentNames); gErr != nil {
				return gErr
			}
		}
	}

	return nil
}

func validateField(doc *ast.QueryDocument, field *ast.Field, variables map[string]interface{}, data map[string]interface{}, path string) *gqlerror.Error {
	key := fieldEntryKey(field)
	fieldPath := path + "." + key

	value, ok := data[key]
	if !ok {
		return gqlerror.Errorf("%s: field is missing from data", fieldPath)
	}

	// null is an acceptable value for any field shape.
	if value == nil {
		return nil
	}

	if field.Name == "__typename" {
		if _, ok := value.(string); !ok {
			return gqlerror.Errorf("%s: __typename must be a string, got %T", fieldPath, value)
		}
		return nil
	}

	if len(field.SelectionSet) == 0 {
		return validateLeafValue(value, fieldPath)
	}

	return validateCompositeValue(doc, field, variables, value, fieldPath)
}

// validateCompositeValue accepts an object or a list nested to any depth,
// recursing into each object with the field's selection set.
func validateCompositeValue(doc *ast.QueryDocument, field *ast.Field, variables map[string]interface{}, value interface{}, path string) *gqlerror.Error {
	switch value := value.(type) {
	case nil:
		return nil
	case map[string]interface{}:
		return validateSelectionSet(doc, field.SelectionSet, variables, value, path, make(map[string]struct{}))
	case []interface{}:
		for i, element := range value {
			if element == nil {
				continue
			}
			elementPath := fmt.Sprintf("%s[%d]", path, i)
			if gErr := validateCompositeValue(doc, field, variables, element, elementPath); gErr != nil {
				return gErr
			}
		}
		return nil
	default:
		return gqlerror.Errorf("%s: field has subselections but data holds %T", path, value)
	}
}

func validateLeafValue(value interface{}, path string) *gqlerror.Error {
	switch value.(type) {
	case bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return nil
	case map[string]interface{}, []interface{}:
		// custom scalars may legitimately carry structured values.
		return nil
	default:
		return gqlerror.Errorf("%s: unsupported value type %T", path, value)
	}
}

// Determines if a selection should be included based on the `@include` and
// `@skip` directives, where `@skip` has higher precedence than `@include`.
func shouldIncludeNode(variables map[string]interface{}, directives ast.DirectiveList) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if v, ok := skip.ArgumentMap(variables)["if"].(bool); ok && v {
			return false
		}
	}

	if include := directives.ForName("include"); include != nil {
		if v, ok := include.ArgumentMap(variables)["if"].(bool); ok && !v {
			return false
		}
	}

	return true
}

// typeConditionMayMatch is a schema-less approximation of fragment condition
// matching: interface and union membership cannot be resolved without a
// schema, so a fragment is skipped only when the data carries a __typename
// that differs from the condition. Absent or non-string __typename
// traverses. Skipping an interface-conditioned fragment over a concrete
// typename errs toward accepting, which is the right direction for a
// sanity check.
func typeConditionMayMatch(typeCondition string, data map[string]interface{}) bool {
	if typeCondition == "" {
		return true
	}
	typename, ok := data["__typename"].(string)
	if !ok {
		return true
	}
	return typename == typeCondition
}

// Implements the logic to compute the key of a given field's entry.
func fieldEntryKey(field *ast.Field) string {
	if field.Alias != "" {
		return field.Alias
	}
	return field.Name
}
