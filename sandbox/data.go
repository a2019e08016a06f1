package sandbox

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/wudi/formscript/form"
)

// Data is the descriptor a host supplies to open a session.
type Data struct {
	DocInfo          DocInfo   `json:"docInfo" yaml:"docInfo"`
	AppInfo          AppInfo   `json:"appInfo" yaml:"appInfo"`
	Objects          ObjectMap `json:"objects" yaml:"objects"`
	CalculationOrder []string  `json:"calculationOrder" yaml:"calculationOrder"`
}

// DocInfo carries document metadata and document level actions.
type DocInfo struct {
	Title    string    `json:"title" yaml:"title"`
	Author   string    `json:"author" yaml:"author"`
	Subject  string    `json:"subject" yaml:"subject"`
	Keywords string    `json:"keywords" yaml:"keywords"`
	Creator  string    `json:"creator" yaml:"creator"`
	Producer string    `json:"producer" yaml:"producer"`
	URL      string    `json:"URL" yaml:"URL"`
	BaseURL  string    `json:"baseURL" yaml:"baseURL"`
	FileName string    `json:"documentFileName" yaml:"documentFileName"`
	FileSize int64     `json:"filesize" yaml:"filesize"`
	NumPages int       `json:"numPages" yaml:"numPages"`
	PageNum  int       `json:"pageNum" yaml:"pageNum"`
	Actions  ActionMap `json:"actions" yaml:"actions"`
}

// AppInfo describes the viewer. Language is a BCP 47 tag and Platform a
// free-form platform string such as a user agent platform.
type AppInfo struct {
	Language string `json:"language" yaml:"language"`
	Platform string `json:"platform" yaml:"platform"`
}

// Object describes one widget of a field.
type Object struct {
	ID                string    `json:"id" yaml:"id"`
	Name              string    `json:"name" yaml:"name"`
	Type              string    `json:"type" yaml:"type"`
	Value             any       `json:"value" yaml:"value"`
	ValueAsString     any       `json:"valueAsString" yaml:"valueAsString"`
	DefaultValue      any       `json:"defaultValue" yaml:"defaultValue"`
	ExportValue       any       `json:"exportValues" yaml:"exportValues"`
	Readonly          bool      `json:"readonly" yaml:"readonly"`
	Required          bool      `json:"required" yaml:"required"`
	MultipleSelection bool      `json:"multipleSelection" yaml:"multipleSelection"`
	FillColor         any       `json:"fillColor" yaml:"fillColor"`
	StrokeColor       any       `json:"strokeColor" yaml:"strokeColor"`
	TextColor         any       `json:"textColor" yaml:"textColor"`
	Actions           ActionMap `json:"actions" yaml:"actions"`
	// Attrs collects the remaining widget properties (alignment, display,
	// rect, ...).
	Attrs map[string]any `json:"-" yaml:",inline"`
}

func (o Object) config() form.FieldConfig {
	return form.FieldConfig{
		ID:                o.ID,
		Name:              o.Name,
		Type:              o.Type,
		Value:             o.Value,
		ValueAsString:     o.ValueAsString,
		DefaultValue:      o.DefaultValue,
		ExportValue:       o.ExportValue,
		Readonly:          o.Readonly,
		Required:          o.Required,
		MultipleSelection: o.MultipleSelection,
		FillColor:         o.FillColor,
		StrokeColor:       o.StrokeColor,
		TextColor:         o.TextColor,
		Actions:           o.Actions.Actions(),
		Attrs:             o.Attrs,
	}
}

func kindOf(typ string) form.Kind {
	switch typ {
	case "radiobutton":
		return form.KindRadio
	case "checkbox":
		return form.KindCheckbox
	}
	return form.KindPlain
}

// ActionEntry binds the scripts of one event.
type ActionEntry struct {
	Event   string
	Scripts []string
}

// ActionMap is an event to scripts mapping that keeps document order.
type ActionMap []ActionEntry

// UnmarshalYAML reads a mapping of event names to a script or a list of
// scripts.
func (m *ActionMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: actions must be a mapping", value.Line)
	}
	out := make(ActionMap, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, node := value.Content[i], value.Content[i+1]
		var scripts []string
		if node.Kind == yaml.ScalarNode {
			scripts = []string{node.Value}
		} else if err := node.Decode(&scripts); err != nil {
			return errors.Wrapf(err, "actions for %q", key.Value)
		}
		out = append(out, ActionEntry{Event: key.Value, Scripts: scripts})
	}
	*m = out
	return nil
}

// UnmarshalJSON decodes through the YAML reader to keep key order.
func (m *ActionMap) UnmarshalJSON(b []byte) error { return yaml.Unmarshal(b, m) }

// Actions converts m to a form action map.
func (m ActionMap) Actions() *form.Actions {
	a := form.NewActions(nil)
	for _, e := range m {
		a.Set(e.Event, e.Scripts)
	}
	return a
}

// Map flattens m, losing its order.
func (m ActionMap) Map() map[string][]string {
	if m == nil {
		return nil
	}
	out := make(map[string][]string, len(m))
	for _, e := range m {
		out[e.Event] = e.Scripts
	}
	return out
}

// NamedObjects lists the widgets of one field.
type NamedObjects struct {
	Name    string
	Widgets []Object
}

// ObjectMap maps field names to their widgets in document order. The
// order drives field registration and therefore getNthFieldName.
type ObjectMap []NamedObjects

func (m *ObjectMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: objects must be a mapping", value.Line)
	}
	out := make(ObjectMap, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, node := value.Content[i], value.Content[i+1]
		var widgets []Object
		if err := node.Decode(&widgets); err != nil {
			return errors.Wrapf(err, "objects for %q", key.Value)
		}
		out = append(out, NamedObjects{Name: key.Value, Widgets: widgets})
	}
	*m = out
	return nil
}

func (m *ObjectMap) UnmarshalJSON(b []byte) error { return yaml.Unmarshal(b, m) }

// EventData is the host's description of one interaction.
type EventData struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	Value      any       `json:"value" yaml:"value"`
	Change     string    `json:"change" yaml:"change"`
	ChangeEx   any       `json:"changeEx" yaml:"changeEx"`
	CommitKey  int       `json:"commitKey" yaml:"commitKey"`
	FieldFull  bool      `json:"fieldFull" yaml:"fieldFull"`
	KeyDown    bool      `json:"keyDown" yaml:"keyDown"`
	Modifier   bool      `json:"modifier" yaml:"modifier"`
	Shift      bool      `json:"shift" yaml:"shift"`
	WillCommit bool      `json:"willCommit" yaml:"willCommit"`
	SelStart   *int      `json:"selStart" yaml:"selStart"`
	SelEnd     *int      `json:"selEnd" yaml:"selEnd"`
	PageNumber int       `json:"pageNumber" yaml:"pageNumber"`
	Actions    ActionMap `json:"actions" yaml:"actions"`
}

// Raw converts d to the dispatcher's record. Missing selection bounds are
// left unset.
func (d EventData) Raw() form.RawEvent {
	raw := form.NewRawEvent(d.ID, d.Name)
	raw.Value = d.Value
	raw.Change = d.Change
	raw.ChangeEx = d.ChangeEx
	raw.CommitKey = d.CommitKey
	raw.FieldFull = d.FieldFull
	raw.KeyDown = d.KeyDown
	raw.Modifier = d.Modifier
	raw.Shift = d.Shift
	raw.WillCommit = d.WillCommit
	if d.SelStart != nil {
		raw.SelStart = *d.SelStart
	}
	if d.SelEnd != nil {
		raw.SelEnd = *d.SelEnd
	}
	raw.PageNumber = d.PageNumber
	raw.Actions = d.Actions.Map()
	return raw
}
