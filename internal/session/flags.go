package session

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Flag is one dashboard panel that may be shown on the next render pass.
type Flag uint8

const (
	ShowInfo Flag = iota
	ShowDescribe
	ShowTypeAnalysis
	ShowTypeConverted
	ShowColumnAnalysis
	ShowColumnRenamed
	ShowMissingAnalysis
	ShowMissingHandled
	ShowDuplicateAnalysis
	ShowDuplicatesHandled
	ShowOutlierAnalysis
	ShowOutliersHandled
	ShowVisualize
	ShowCorrelation
	flagCount
)

var flagNames = [flagCount]string{
	ShowInfo:              "show_info",
	ShowDescribe:          "show_describe",
	ShowTypeAnalysis:      "show_type_analysis",
	ShowTypeConverted:     "show_type_converted",
	ShowColumnAnalysis:    "show_column_analysis",
	ShowColumnRenamed:     "show_column_renamed",
	ShowMissingAnalysis:   "show_missing_analysis",
	ShowMissingHandled:    "show_missing_handled",
	ShowDuplicateAnalysis: "show_duplicate_analysis",
	ShowDuplicatesHandled: "show_duplicates_handled",
	ShowOutlierAnalysis:   "show_outlier_analysis",
	ShowOutliersHandled:   "show_outliers_handled",
	ShowVisualize:         "show_visualize",
	ShowCorrelation:       "show_correlation",
}

func (f Flag) String() string {
	if f < flagCount {
		return flagNames[f]
	}
	return fmt.Sprintf("flag(%d)", uint8(f))
}

func (f Flag) MarshalJSON() ([]byte, error) { return json.Marshal(f.String()) }

// Sticky flags survive render passes and keep an interactive form open until
// the next action.
func (f Flag) Sticky() bool {
	switch f {
	case ShowTypeAnalysis, ShowColumnAnalysis, ShowDuplicateAnalysis, ShowOutlierAnalysis:
		return true
	}
	return false
}

// Terminal one-shot flags close every panel, sticky ones included, once shown.
func (f Flag) Terminal() bool {
	switch f {
	case ShowInfo, ShowDescribe, ShowTypeConverted, ShowColumnRenamed:
		return true
	}
	return false
}

// Action is a dashboard button.
type Action uint8

const (
	ActionInfo Action = iota + 1
	ActionDescribe
	ActionTypeAnalysis
	ActionConvertType
	ActionColumnAnalysis
	ActionRenameColumns
	ActionMissingAnalysis
	ActionHandleMissing
	ActionDuplicateAnalysis
	ActionHandleDuplicates
	ActionOutlierAnalysis
	ActionHandleOutliers
	ActionVisualize
	ActionCorrelation
)

var actionTable = map[Action]struct {
	name  string
	flags []Flag
}{
	ActionInfo:              {"info", []Flag{ShowInfo}},
	ActionDescribe:          {"describe", []Flag{ShowDescribe}},
	ActionTypeAnalysis:      {"type_analysis", []Flag{ShowTypeAnalysis}},
	ActionConvertType:       {"convert_type", []Flag{ShowTypeAnalysis, ShowTypeConverted}},
	ActionColumnAnalysis:    {"column_analysis", []Flag{ShowColumnAnalysis}},
	ActionRenameColumns:     {"rename_columns", []Flag{ShowColumnAnalysis, ShowColumnRenamed}},
	ActionMissingAnalysis:   {"missing_analysis", []Flag{ShowMissingAnalysis}},
	ActionHandleMissing:     {"handle_missing", []Flag{ShowMissingHandled}},
	ActionDuplicateAnalysis: {"duplicate_analysis", []Flag{ShowDuplicateAnalysis}},
	ActionHandleDuplicates:  {"handle_duplicates", []Flag{ShowDuplicatesHandled}},
	ActionOutlierAnalysis:   {"outlier_analysis", []Flag{ShowOutlierAnalysis}},
	ActionHandleOutliers:    {"handle_outliers", []Flag{ShowOutliersHandled}},
	ActionVisualize:         {"visualize", []Flag{ShowVisualize}},
	ActionCorrelation:       {"correlation", []Flag{ShowCorrelation}},
}

func (a Action) String() string {
	if s, ok := actionTable[a]; ok {
		return s.name
	}
	return fmt.Sprintf("action(%d)", uint8(a))
}

func (a Action) MarshalJSON() ([]byte, error) { return json.Marshal(a.String()) }

// Flags returns the panels an action opens.
func (a Action) Flags() []Flag {
	return append([]Flag(nil), actionTable[a].flags...)
}

// ParseAction looks an action up by name.
func ParseAction(s string) (Action, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for a, info := range actionTable {
		if info.name == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// Flags is the panel state of one session. The zero value has every flag off.
type Flags struct {
	set  uint32
	last Action
}

// Trigger closes every panel and opens the ones belonging to a.
func (f *Flags) Trigger(a Action) {
	f.Reset()
	f.last = a
	for _, fl := range actionTable[a].flags {
		f.set |= 1 << fl
	}
}

// Reset turns every flag off.
func (f *Flags) Reset() {
	f.set = 0
}

// Active reports whether fl is on.
func (f Flags) Active(fl Flag) bool { return f.set&(1<<fl) != 0 }

// Last is the most recently triggered action, 0 before the first.
func (f Flags) Last() Action { return f.last }

// List returns the active flags in display order without changing state.
func (f Flags) List() []Flag {
	out := []Flag{}
	for fl := Flag(0); fl < flagCount; fl++ {
		if f.Active(fl) {
			out = append(out, fl)
		}
	}
	return out
}

// Render returns the panels to draw now and then clears what was shown:
// one-shot flags go off, sticky flags stay, and a terminal flag turns
// everything off.
func (f *Flags) Render() []Flag {
	shown := f.List()
	terminal := false
	for _, fl := range shown {
		if fl.Terminal() {
			terminal = true
		}
		if !fl.Sticky() {
			f.set &^= 1 << fl
		}
	}
	if terminal {
		f.Reset()
	}
	return shown
}
