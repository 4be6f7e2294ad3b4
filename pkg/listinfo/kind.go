package listinfo

import "fmt"

// FieldKind classifies a column by how it expands into addressable paths.
type FieldKind int

const (
	KindScalar FieldKind = iota
	KindLookup
	KindUser
	KindURL
	KindUnsupported
	kindCount
)

var kindNames = [kindCount]string{
	KindScalar:      "scalar",
	KindLookup:      "lookup",
	KindUser:        "user",
	KindURL:         "url",
	KindUnsupported: "unsupported",
}

func (k FieldKind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
	return kindNames[k]
}

// KindOf maps a store type name onto a FieldKind.
func KindOf(fieldType string) FieldKind {
	switch fieldType {
	case "Lookup":
		return KindLookup
	case "User":
		return KindUser
	case "URL":
		return KindURL
	case "UserMulti", "LookupMulti", "TaxonomFieldTypeMulti", "TaxonomyFieldTypeMulti", "MultiChoice", "Attachments":
		return KindUnsupported
	default:
		return KindScalar
	}
}

// linkTitleAliases are rendering variants of the Title column.
var linkTitleAliases = map[string]struct{}{
	"LinkTitle":       {},
	"LinkTitleNoMenu": {},
	"LinkTitle2":      {},
}

// viewBuilder accumulates one view's fetch columns and addressable paths
// while recording labels on the shared field map.
type viewBuilder struct {
	fields       *FieldMap
	viewFields   []string
	fieldChoices []string
}

func (b *viewBuilder) fetch(name string) { b.viewFields = append(b.viewFields, name) }

func (b *viewBuilder) offer(path, label string) {
	b.fieldChoices = append(b.fieldChoices, path)
	b.fields.Set(path, label)
}

type expandFunc func(b *viewBuilder, name string, field FieldInfo)

// expanders holds one rule per kind, indexed by FieldKind. Every kind
// must have an entry.
var expanders = [kindCount]expandFunc{
	KindScalar: func(b *viewBuilder, name string, field FieldInfo) {
		b.fetch(name)
		b.offer(name, field.Title)
	},
	KindLookup: func(b *viewBuilder, name string, field FieldInfo) {
		b.fetch(name)
		if field.DependentLookup {
			b.offer(name, field.Title)
			return
		}
		b.offer(name+"/lookupId", field.Title+" (Id)")
		if field.LookupField != "ID" {
			b.offer(name+"/lookupValue", fmt.Sprintf("%s (%s)", field.Title, field.LookupField))
		}
	},
	KindUser: func(b *viewBuilder, name string, field FieldInfo) {
		b.fetch(name)
		b.offer(name+"/id", field.Title+" (Id)")
		b.offer(name+"/title", field.Title+" (Name)")
		b.offer(name+"/email", field.Title+" (Email)")
		b.offer(name+"/picture", field.Title+" (Picture URL)")
		b.offer(name+"/sip", field.Title+" (SIP)")
	},
	KindURL: func(b *viewBuilder, name string, field FieldInfo) {
		b.fetch(name)
		b.offer(name, field.Title+" (URL)")
		b.offer(name+".desc", field.Title+" (Description)")
	},
	KindUnsupported: func(*viewBuilder, string, FieldInfo) {},
}
