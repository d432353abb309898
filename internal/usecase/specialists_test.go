package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchSpecialistKeysDefault(t *testing.T) {
	keys := matchSpecialistKeys("What should we do about the weather?")
	assert.Equal(t, []string{"people", "process", "strategy"}, keys)
	assert.NotContains(t, keys, "finance")
}

func TestMatchSpecialistKeysFinanceOnly(t *testing.T) {
	keys := matchSpecialistKeys("How big is our budget this quarter?")
	assert.Equal(t, []string{"finance"}, keys)
}

func TestMatchSpecialistKeysCaseInsensitive(t *testing.T) {
	keys := matchSpecialistKeys("Should we HIRE more engineers?")
	assert.Equal(t, []string{"people"}, keys)
}

func TestMatchSpecialistKeysMultiple(t *testing.T) {
	keys := matchSpecialistKeys("Does our hiring plan fit the roadmap and the budget?")
	assert.ElementsMatch(t, []string{"people", "strategy", "finance"}, keys)
}

func TestDefinitionByKey(t *testing.T) {
	def, ok := DefinitionByKey("finance")
	require.True(t, ok)
	assert.Equal(t, "Head of Finance", def.Name)

	_, ok = DefinitionByKey("marketing")
	assert.False(t, ok)
}

func TestCatalogKeywordSetsDisjoint(t *testing.T) {
	seen := map[string]string{}
	for _, def := range specialistCatalog {
		for _, kw := range def.Keywords {
			if owner, dup := seen[kw]; dup {
				t.Errorf("keyword %q appears in both %s and %s", kw, owner, def.Key)
			}
			seen[kw] = def.Key
		}
	}
}
