package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PropertyType is the closed set of type tags a GlobalProperty can carry.
// The values are the method config names used by the target platform.
type PropertyType string

const (
	TypeNumber              PropertyType = "NumberMethodConfig"
	TypeHistoricalNumber    PropertyType = "HistoricalNumberMethodConfig"
	TypeString              PropertyType = "StringMethodConfig"
	TypeText                PropertyType = "TextMethodConfig"
	TypeHistoricalText      PropertyType = "HistoricalTextMethodConfig"
	TypeRichText            PropertyType = "RichTextMethodConfig"
	TypeHistoricalRichText  PropertyType = "HistoricalRichTextMethodConfig"
	TypeDate                PropertyType = "DateMethodConfig"
	TypeHistoricalDate      PropertyType = "HistoricalDateMethodConfig"
	TypeBoolean             PropertyType = "BooleanMethodConfig"
	TypeHistoricalBoolean   PropertyType = "HistoricalBooleanMethodConfig"
	TypeFile                PropertyType = "FileMethodConfig"
	TypeReference           PropertyType = "ReferenceMethodConfig"
	TypeHistoricalReference PropertyType = "HistoricalReferenceMethodConfig"
	TypeReverseReference    PropertyType = "ReverseReferenceMethodConfig"
	TypeList                PropertyType = "ListMethodConfig"
	TypeHistoricalList      PropertyType = "HistoricalListMethodConfig"
	TypeExtended            PropertyType = "ExtendedMethodConfig"
)

// PropertyTypes lists every known type tag
var PropertyTypes = []PropertyType{
	TypeNumber, TypeHistoricalNumber,
	TypeString, TypeText, TypeHistoricalText,
	TypeRichText, TypeHistoricalRichText,
	TypeDate, TypeHistoricalDate,
	TypeBoolean, TypeHistoricalBoolean,
	TypeFile,
	TypeReference, TypeHistoricalReference, TypeReverseReference,
	TypeList, TypeHistoricalList,
	TypeExtended,
}

// Valid returns true if t is one of the known type tags
func (t PropertyType) Valid() bool {
	for _, known := range PropertyTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t PropertyType) IsNumeric() bool {
	return t == TypeNumber || t == TypeHistoricalNumber
}

func (t PropertyType) IsList() bool {
	return t == TypeList || t == TypeHistoricalList
}

// IsRelational returns true for types whose value points at instances of another class
func (t PropertyType) IsRelational() bool {
	return t == TypeReference || t == TypeHistoricalReference || t == TypeReverseReference
}

func (t PropertyType) IsReverse() bool {
	return t == TypeReverseReference
}

func (t PropertyType) IsHistorical() bool {
	return strings.HasPrefix(string(t), "Historical")
}

// ConfigKind discriminates the PropertyConfig variants
type ConfigKind string

const (
	ConfigScalar    ConfigKind = "scalar"
	ConfigNumber    ConfigKind = "number"
	ConfigList      ConfigKind = "list"
	ConfigReference ConfigKind = "reference"
	ConfigExtended  ConfigKind = "extended"
)

// PropertyConfig is the type-specific configuration of a GlobalProperty.
// Each variant carries only the fields that make sense for its kind.
type PropertyConfig interface {
	Kind() ConfigKind
}

// ScalarConfig is used by text, rich text, date, boolean and file properties
type ScalarConfig struct{}

// NumberConfig configures numeric formatting
type NumberConfig struct {
	DecimalPlaces int
	FormatPostfix string // Unit suffix, e.g. "%" or " USD"
}

// ListConfig points at a ListPropertySet
type ListConfig struct {
	ListID string
}

// ReferenceConfig configures relational properties
type ReferenceConfig struct {
	TargetClass string
	MultiSelect bool
}

// ExtendedConfig holds a free-text script expression
type ExtendedConfig struct {
	Expression string
}

func (ScalarConfig) Kind() ConfigKind    { return ConfigScalar }
func (NumberConfig) Kind() ConfigKind    { return ConfigNumber }
func (ListConfig) Kind() ConfigKind      { return ConfigList }
func (ReferenceConfig) Kind() ConfigKind { return ConfigReference }
func (ExtendedConfig) Kind() ConfigKind  { return ConfigExtended }

// ConfigKindFor returns the config variant a property type requires
func ConfigKindFor(t PropertyType) ConfigKind {
	switch {
	case t.IsNumeric():
		return ConfigNumber
	case t.IsList():
		return ConfigList
	case t.IsRelational():
		return ConfigReference
	case t == TypeExtended:
		return ConfigExtended
	default:
		return ConfigScalar
	}
}

// ConvertConfig returns a config of the variant required by t.
// Fields are carried over when the variant does not change.
func ConvertConfig(t PropertyType, cfg PropertyConfig) PropertyConfig {
	kind := ConfigKindFor(t)
	if cfg != nil && cfg.Kind() == kind {
		return cfg
	}
	switch kind {
	case ConfigNumber:
		return NumberConfig{}
	case ConfigList:
		return ListConfig{}
	case ConfigReference:
		return ReferenceConfig{}
	case ConfigExtended:
		return ExtendedConfig{}
	default:
		return ScalarConfig{}
	}
}

// GlobalProperty is a named, typed field definition shared across entities
type GlobalProperty struct {
	ID        string
	Name      string
	Type      PropertyType
	Config    PropertyConfig
	ColorCode string // UI hint only
}

// Reference returns the relational config, if the property is relational
func (p *GlobalProperty) Reference() (ReferenceConfig, bool) {
	ref, ok := p.Config.(ReferenceConfig)
	return ref, ok && p.Type.IsRelational()
}

// TargetClass returns the target class of a relational property or ""
func (p *GlobalProperty) TargetClass() string {
	if ref, ok := p.Reference(); ok {
		return ref.TargetClass
	}
	return ""
}

// ListID returns the vocabulary id of a list property or ""
func (p *GlobalProperty) ListID() string {
	if l, ok := p.Config.(ListConfig); ok {
		return l.ListID
	}
	return ""
}

// EdgeCardinality is the cardinality every edge spawned by this property must carry
func (p *GlobalProperty) EdgeCardinality() Cardinality {
	ref, _ := p.Reference()
	if ref.MultiSelect || p.Type.IsReverse() {
		return CardinalityMany
	}
	return CardinalityOne
}

// Clone returns a copy. Config variants are values, so a shallow copy is deep.
func (p *GlobalProperty) Clone() *GlobalProperty {
	c := *p
	return &c
}

// configBag is the flat JSON shape of a property config
type configBag struct {
	DecimalPlaces *int   `json:"decimalPlaces,omitempty"`
	FormatPostfix string `json:"formatPostfix,omitempty"`
	TargetClass   string `json:"targetClass,omitempty"`
	MultiSelect   *bool  `json:"multiSelect,omitempty"`
	ListID        string `json:"listId,omitempty"`
	Expression    string `json:"expression,omitempty"`
	ColorCode     string `json:"colorCode,omitempty"`
}

type propertyJSON struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Type   PropertyType `json:"type"`
	Config configBag    `json:"config"`
}

// MarshalJSON writes the config as the flat bag the editor persists
func (p GlobalProperty) MarshalJSON() ([]byte, error) {
	bag := configBag{ColorCode: p.ColorCode}
	switch cfg := p.Config.(type) {
	case NumberConfig:
		places := cfg.DecimalPlaces
		bag.DecimalPlaces = &places
		bag.FormatPostfix = cfg.FormatPostfix
	case ListConfig:
		bag.ListID = cfg.ListID
	case ReferenceConfig:
		multi := cfg.MultiSelect
		bag.TargetClass = cfg.TargetClass
		bag.MultiSelect = &multi
	case ExtendedConfig:
		bag.Expression = cfg.Expression
	}
	return json.Marshal(propertyJSON{ID: p.ID, Name: p.Name, Type: p.Type, Config: bag})
}

// UnmarshalJSON decodes the flat bag into the variant selected by the type tag
func (p *GlobalProperty) UnmarshalJSON(data []byte) error {
	var raw propertyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !raw.Type.Valid() {
		return fmt.Errorf("property %q: unknown type %q", raw.ID, raw.Type)
	}

	p.ID = raw.ID
	p.Name = raw.Name
	p.Type = raw.Type
	p.ColorCode = raw.Config.ColorCode

	switch ConfigKindFor(raw.Type) {
	case ConfigNumber:
		cfg := NumberConfig{FormatPostfix: raw.Config.FormatPostfix}
		if raw.Config.DecimalPlaces != nil {
			cfg.DecimalPlaces = *raw.Config.DecimalPlaces
		}
		p.Config = cfg
	case ConfigList:
		p.Config = ListConfig{ListID: raw.Config.ListID}
	case ConfigReference:
		cfg := ReferenceConfig{TargetClass: raw.Config.TargetClass}
		if raw.Config.MultiSelect != nil {
			cfg.MultiSelect = *raw.Config.MultiSelect
		}
		p.Config = cfg
	case ConfigExtended:
		p.Config = ExtendedConfig{Expression: raw.Config.Expression}
	default:
		p.Config = ScalarConfig{}
	}
	return nil
}
