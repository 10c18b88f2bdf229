package gate

import (
	"reflect"

	"gorm.io/gorm/schema"
)

// Type is an explicit resource type descriptor, used when there is no
// instance at hand (list and create checks).
type Type string

// ResourceType implements Resource.
func (t Type) ResourceType() string { return string(t) }

// Resource is implemented by models that name their own policy key.
type Resource interface {
	ResourceType() string
}

// naming matches the singular table names gorm would derive, so a
// *models.InvoiceItem resolves as "invoice_item".
var naming = schema.NamingStrategy{SingularTable: true}

// TypeOf returns the registry key for resource. Collections resolve through
// their first element; an empty collection or nil yields "". A typed nil
// pointer such as (*Product)(nil) works as a type descriptor, and so does a
// plain string, which is read as Type(s).
func TypeOf(resource any) string {
	resource = representative(resource)
	if resource == nil {
		return ""
	}
	v := reflect.ValueOf(resource)
	if v.Kind() == reflect.Pointer && v.IsNil() {
		resource = reflect.New(v.Type().Elem()).Interface()
	}
	if r, ok := resource.(Resource); ok {
		return r.ResourceType()
	}
	t := reflect.TypeOf(resource)
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	if t.Name() == "" {
		return ""
	}
	return naming.TableName(t.Name())
}

// representative picks the value a check runs against: the first element of
// a slice or array, the value itself otherwise. Struct elements are handed
// out as pointers for slices and arrays alike, so pointer-receiver methods
// such as GetUserID stay visible to policies.
func representative(resource any) any {
	switch r := resource.(type) {
	case nil:
		return nil
	case Resource:
		return r
	case string:
		if r == "" {
			return nil
		}
		return Type(r)
	}
	v := reflect.ValueOf(resource)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return nil
		}
		first := v.Index(0)
		if first.Kind() == reflect.Interface && first.IsNil() {
			return nil
		}
		if first.Kind() == reflect.Struct {
			if first.CanAddr() {
				return first.Addr().Interface()
			}
			ptr := reflect.New(first.Type())
			ptr.Elem().Set(first)
			return ptr.Interface()
		}
		return first.Interface()
	}
	return resource
}

// IsType reports whether resource only describes a type: nil, a Type, a
// string, or a typed nil pointer. Policies use it to tell list/create checks apart from
// checks on a loaded instance.
func IsType(resource any) bool {
	if resource == nil {
		return true
	}
	switch resource.(type) {
	case Type, string:
		return true
	}
	v := reflect.ValueOf(resource)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
