package scripting

import "github.com/dop251/goja"

// constants are the frozen enumeration globals scripts use for field
// appearance.
var constants = map[string]map[string]any{
	"border":  {"s": "solid", "d": "dashed", "b": "beveled", "i": "inset", "u": "underline"},
	"cursor":  {"visible": 0, "hidden": 1, "delay": 2},
	"display": {"visible": 0, "hidden": 1, "noPrint": 2, "noView": 3},
	"font": {
		"Times": "Times-Roman", "TimesB": "Times-Bold", "TimesI": "Times-Italic", "TimesBI": "Times-BoldItalic",
		"Helv": "Helvetica", "HelvB": "Helvetica-Bold", "HelvI": "Helvetica-Oblique", "HelvBI": "Helvetica-BoldOblique",
		"Cour": "Courier", "CourB": "Courier-Bold", "CourI": "Courier-Oblique", "CourBI": "Courier-BoldOblique",
		"Symbol": "Symbol", "ZapfD": "ZapfDingbats",
	},
	"highlight": {"n": "none", "i": "invert", "p": "push", "o": "outline"},
	"position": {
		"textOnly": 0, "iconOnly": 1, "iconTextV": 2, "textIconV": 3,
		"iconTextH": 4, "textIconH": 5, "overlay": 6,
	},
	"scaleHow":  {"proportional": 0, "anamorphic": 1},
	"scaleWhen": {"always": 0, "never": 1, "tooBig": 2, "tooSmall": 3},
	"style":     {"ch": "check", "cr": "cross", "di": "diamond", "ci": "circle", "st": "star", "sq": "square"},
	"zoomtype": {
		"none": "NoVary", "fitP": "FitPage", "fitW": "FitWidth", "fitH": "FitHeight",
		"fitV": "FitVisibleWidth", "pref": "Preferred", "refW": "ReflowWidth",
	},
}

func (e *GojaEngine) installConstants() {
	for name, values := range constants {
		obj := e.vm.NewObject()
		for k, v := range values {
			obj.DefineDataProperty(k, e.vm.ToValue(v), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE)
		}
		e.vm.Set(name, obj)
	}
}
