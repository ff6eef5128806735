package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrerequisiteMap_UnmarshalKeepsOrder(t *testing.T) {
	var m PrerequisiteMap
	err := json.Unmarshal([]byte(`{"Sets":"Functions","Functions":"Limits","Algebra":"Limits","Limits":"ROOT"}`), &m)

	require.NoError(t, err)
	assert.Equal(t, []PrerequisiteEntry{
		{Prerequisite: "Sets", Dependent: "Functions"},
		{Prerequisite: "Functions", Dependent: "Limits"},
		{Prerequisite: "Algebra", Dependent: "Limits"},
		{Prerequisite: "Limits", Dependent: "ROOT"},
	}, m.Entries())
	assert.True(t, m.Entries()[3].IsRoot())
	assert.False(t, m.Entries()[0].IsRoot())
}

func TestPrerequisiteMap_ArrayValuesExpand(t *testing.T) {
	var m PrerequisiteMap
	err := json.Unmarshal([]byte(`{"Algebra":["Calculus","Statistics"],"Calculus":"ROOT"}`), &m)

	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, "Statistics", m.Entries()[1].Dependent)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Algebra":["Calculus","Statistics"],"Calculus":"ROOT"}`, string(out))
}

func TestPrerequisiteMap_RepeatedKeyKeepsFirstPosition(t *testing.T) {
	var m PrerequisiteMap
	err := json.Unmarshal([]byte(`{"A":"B","C":"ROOT","A":"C"}`), &m)

	require.NoError(t, err)
	assert.Equal(t, []PrerequisiteEntry{
		{Prerequisite: "A", Dependent: "C"},
		{Prerequisite: "C", Dependent: "ROOT"},
	}, m.Entries())
}

func TestPrerequisiteMap_Rejects(t *testing.T) {
	tests := map[string]string{
		"not an object":  `["A","B"]`,
		"numeric value":  `{"A":1}`,
		"object value":   `{"A":{"B":"C"}}`,
		"truncated json": `{"A":"B"`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			var m PrerequisiteMap
			assert.Error(t, json.Unmarshal([]byte(input), &m))
		})
	}
}
