package command

import "fmt"

// Handles name backend-owned objects. The zero value never names a live object.
type (
	FileHandle              uint64
	ArtboardHandle          uint64
	StateMachineHandle      uint64
	ViewModelInstanceHandle uint64
	ImageHandle             uint64
	FontHandle              uint64
	AudioHandle             uint64
)

// DataType tags view model property kinds. Raw values follow the backend's
// ordering and are what property definition listings carry in their "type" key.
type DataType int

const (
	DataTypeNone DataType = iota
	DataTypeString
	DataTypeNumber
	DataTypeBoolean
	DataTypeColor
	DataTypeList
	DataTypeEnum
	DataTypeTrigger
	DataTypeViewModel
	DataTypeInteger
	DataTypeSymbolListIndex
	DataTypeAssetImage
	DataTypeArtboard
	DataTypeInput
	DataTypeAny
)

var dataTypeNames = [...]string{
	DataTypeNone:            "none",
	DataTypeString:          "string",
	DataTypeNumber:          "number",
	DataTypeBoolean:         "boolean",
	DataTypeColor:           "color",
	DataTypeList:            "list",
	DataTypeEnum:            "enum",
	DataTypeTrigger:         "trigger",
	DataTypeViewModel:       "viewModel",
	DataTypeInteger:         "integer",
	DataTypeSymbolListIndex: "symbolListIndex",
	DataTypeAssetImage:      "assetImage",
	DataTypeArtboard:        "artboard",
	DataTypeInput:           "input",
	DataTypeAny:             "any",
}

// Valid reports whether t is a known raw value.
func (t DataType) Valid() bool {
	return t >= DataTypeNone && t <= DataTypeAny
}

func (t DataType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("DataType(%d)", int(t))
	}
	return dataTypeNames[t]
}

// ParseDataType maps a name produced by String back to its DataType.
func ParseDataType(name string) (DataType, bool) {
	for i, n := range dataTypeNames {
		if n == name {
			return DataType(i), true
		}
	}
	return DataTypeNone, false
}

// ViewModelData is the payload of a view model data reply.
//
// At most one value field is expected to be set. Trigger payloads carry
// Type == DataTypeTrigger and no meaningful value.
type ViewModelData struct {
	Type        DataType
	Name        string
	StringValue *string
	NumberValue *float32
	BoolValue   *bool
	ColorValue  *uint32
}

// StringData builds a string payload.
func StringData(v string) ViewModelData {
	return ViewModelData{Type: DataTypeString, StringValue: &v}
}

// NumberData builds a number payload.
func NumberData(v float32) ViewModelData {
	return ViewModelData{Type: DataTypeNumber, NumberValue: &v}
}

// BoolData builds a boolean payload.
func BoolData(v bool) ViewModelData {
	return ViewModelData{Type: DataTypeBoolean, BoolValue: &v}
}

// ColorData builds a color payload from a packed ARGB value.
func ColorData(argb uint32) ViewModelData {
	return ViewModelData{Type: DataTypeColor, ColorValue: &argb}
}

// TriggerData builds a trigger payload.
func TriggerData() ViewModelData {
	return ViewModelData{Type: DataTypeTrigger}
}
