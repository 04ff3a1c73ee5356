package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerKeepsOnlyLatestAction(t *testing.T) {
	var f Flags
	assert.Empty(t, f.List())

	f.Trigger(ActionHandleMissing)
	f.Trigger(ActionHandleDuplicates)
	assert.Equal(t, []Flag{ShowDuplicatesHandled}, f.List())
	for fl := Flag(0); fl < flagCount; fl++ {
		if fl != ShowDuplicatesHandled {
			assert.False(t, f.Active(fl), fl.String())
		}
	}
	assert.Equal(t, ActionHandleDuplicates, f.Last())
}

func TestRenderClearsOneShotFlags(t *testing.T) {
	var f Flags
	f.Trigger(ActionCorrelation)
	assert.Equal(t, []Flag{ShowCorrelation}, f.Render())
	assert.Empty(t, f.Render())
}

func TestRenderKeepsStickyFlags(t *testing.T) {
	var f Flags
	f.Trigger(ActionColumnAnalysis)
	for i := 0; i < 3; i++ {
		assert.Equal(t, []Flag{ShowColumnAnalysis}, f.Render(), "pass %d", i)
	}
	f.Trigger(ActionVisualize)
	assert.Equal(t, []Flag{ShowVisualize}, f.Render())
	assert.Empty(t, f.List())
}

func TestTerminalFlagClosesStickyPanel(t *testing.T) {
	var f Flags
	f.Trigger(ActionRenameColumns)
	assert.Equal(t, []Flag{ShowColumnAnalysis, ShowColumnRenamed}, f.Render())
	assert.Empty(t, f.List())

	f.Trigger(ActionConvertType)
	assert.True(t, f.Active(ShowTypeAnalysis))
	f.Render()
	assert.False(t, f.Active(ShowTypeAnalysis))

	f.Trigger(ActionInfo)
	assert.Equal(t, []Flag{ShowInfo}, f.Render())
	assert.Empty(t, f.List())
}

func TestFlagLifetimes(t *testing.T) {
	sticky := map[Flag]bool{ShowTypeAnalysis: true, ShowColumnAnalysis: true, ShowDuplicateAnalysis: true, ShowOutlierAnalysis: true}
	for fl := Flag(0); fl < flagCount; fl++ {
		assert.Equal(t, sticky[fl], fl.Sticky(), fl.String())
		if fl.Terminal() {
			assert.False(t, fl.Sticky(), fl.String())
		}
	}
}

func TestParseActionAndJSON(t *testing.T) {
	for a := range actionTable {
		got, err := ParseAction(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, got)
		assert.NotEmpty(t, a.Flags())
	}
	_, err := ParseAction("download")
	assert.Error(t, err)

	b, err := json.Marshal([]Flag{ShowInfo, ShowOutliersHandled})
	require.NoError(t, err)
	assert.JSONEq(t, `["show_info","show_outliers_handled"]`, string(b))
}
