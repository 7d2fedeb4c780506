// SPDX-License-Identifier: Apache-2.0

package trio

import (
	"regexp"
	"strconv"
)

// DataType is the canonical value type of a projected point.
type DataType string

const (
	DataTypeNumeric    DataType = "numeric"
	DataTypeBoolean    DataType = "boolean"
	DataTypeString     DataType = "string"
	DataTypeEnumerated DataType = "enumerated"
)

// Tag names read during projection.
const (
	TagDisplay    = "dis"
	TagBACnetCur  = "bacnetCur"
	TagBACnetWrt  = "bacnetWrite"
	TagWriteLevel = "bacnetWriteLevel"
	TagBACnetDesc = "bacnetDesc"
	TagDescr      = "descr"
	TagKind       = "kind"
	TagUnit       = "unit"
	TagID         = "id"
	TagPoint      = "point"
	TagWritable   = "writable"
	TagCmd        = "cmd"
)

// defaultWriteProperty is used for writable points that name no write target.
const defaultWriteProperty = "presentValue"

var bacnetRefRE = regexp.MustCompile(`^([A-Z]+)(\d+)$`)

// Point is the canonical view of a BACnet point record.
type Point struct {
	ID             string   `json:"id,omitempty"`
	DisplayName    string   `json:"displayName"`
	ObjectKind     string   `json:"objectKind"`
	ObjectInstance int      `json:"objectInstance"`
	DataType       DataType `json:"dataType"`
	Description    string   `json:"description,omitempty"`
	Unit           string   `json:"unit,omitempty"`
	IsWritable     bool     `json:"isWritable"`
	IsCommand      bool     `json:"isCommand"`
	WriteProperty  string   `json:"writeProperty,omitempty"`
	WritePriority  int      `json:"writePriority,omitempty"`
	EquipmentName  string   `json:"equipmentName,omitempty"`
}

// Project converts a record into a Point. It reports false when the record
// lacks dis, a BACnet reference of the form AI39, or kind; those records are
// simply not points.
func Project(record *Record, equipmentName string) (Point, bool) {
	if record == nil {
		return Point{}, false
	}
	dis, ok := record.Get(TagDisplay)
	if !ok {
		return Point{}, false
	}
	kind, ok := record.Get(TagKind)
	if !ok {
		return Point{}, false
	}
	ref, ok := bacnetReference(record)
	if !ok {
		return Point{}, false
	}
	m := bacnetRefRE.FindStringSubmatch(ref)
	if m == nil {
		return Point{}, false
	}
	instance, err := strconv.Atoi(m[2])
	if err != nil {
		return Point{}, false
	}

	p := Point{
		DisplayName:    dis.Raw(),
		ObjectKind:     m[1],
		ObjectInstance: instance,
		DataType:       dataTypeOf(kind),
		IsWritable:     record.Has(TagWritable),
		IsCommand:      record.Has(TagCmd),
		EquipmentName:  equipmentName,
	}
	if id, ok := record.Get(TagID); ok {
		p.ID = id.Display()
	}
	if desc, ok := record.Get(TagBACnetDesc); ok {
		p.Description = desc.Raw()
	} else if desc, ok := record.Get(TagDescr); ok {
		p.Description = desc.Raw()
	}
	if unit, ok := record.Get(TagUnit); ok {
		p.Unit = unitText(unit)
	}
	if w, ok := record.Get(TagBACnetWrt); ok {
		p.WriteProperty = w.Raw()
	} else if p.IsWritable {
		p.WriteProperty = defaultWriteProperty
	}
	if lvl, ok := record.Get(TagWriteLevel); ok && lvl.Kind() == KindNumber {
		p.WritePriority = int(lvl.Float())
	}
	return p, true
}

// bacnetReference returns the object reference text, preferring the current
// value reference over the write reference.
func bacnetReference(record *Record) (string, bool) {
	for _, name := range []string{TagBACnetCur, TagBACnetWrt} {
		if v, ok := record.Get(name); ok {
			switch v.Kind() {
			case KindString:
				return v.Text(), true
			case KindReference:
				return v.RefID(), true
			case KindNumber, KindBoolean, KindMarker:
				return "", false
			}
		}
	}
	return "", false
}

func dataTypeOf(kind Value) DataType {
	if kind.Kind() != KindString {
		return DataTypeNumeric
	}
	switch kind.Text() {
	case "Number":
		return DataTypeNumeric
	case "Bool":
		return DataTypeBoolean
	case "Str", "String":
		return DataTypeString
	case "Enum":
		return DataTypeEnumerated
	default:
		return DataTypeNumeric
	}
}

// unitText renders a unit tag. Units starting with a digit decode as numbers
// with a suffix; their source text is kept.
func unitText(v Value) string {
	switch v.Kind() {
	case KindString:
		return v.Text()
	case KindNumber:
		return v.Raw()
	case KindReference:
		return v.Text()
	case KindBoolean, KindMarker:
		return ""
	default:
		return ""
	}
}
