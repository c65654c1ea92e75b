package ruby

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/changeimpact/symbol"
)

const rubySample = `
class Widget
  def save
    helper
  end
end

module Helpers
  def self.helper
    1
  end
end
`

func TestAnalyzer_Symbols(t *testing.T) {
	a := New()
	syms, stats, err := a.Symbols("app/widget.rb", []byte(rubySample))
	require.NoError(t, err)
	assert.Equal(t, 0, stats.ParseErrors)

	byName := map[string]symbol.Symbol{}
	for _, s := range syms {
		byName[s.Name] = s
	}
	assert.Equal(t, symbol.KindClass, byName["Widget"].Kind)
	assert.Equal(t, symbol.KindMethod, byName["save"].Kind)
	assert.Equal(t, "Widget", byName["save"].Container)
	assert.Equal(t, symbol.KindMod, byName["Helpers"].Kind)
	assert.Equal(t, symbol.KindMethod, byName["helper"].Kind)
}

func TestAnalyzer_References(t *testing.T) {
	a := New()
	syms, _, err := a.Symbols("app/widget.rb", []byte(rubySample))
	require.NoError(t, err)
	refs, err := a.References("app/widget.rb", []byte(rubySample), syms)
	require.NoError(t, err)

	var sawHelperCall bool
	for _, r := range refs {
		if r.TargetName == "helper" && r.Kind == symbol.Call {
			sawHelperCall = true
		}
	}
	assert.True(t, sawHelperCall)
}
