package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annotator/internal/annotate"
	"annotator/internal/annotate/projector"
)

func testSnapshot() Snapshot {
	return Snapshot{
		Components: []GUIComponent{{ID: 1, Name: "btn1"}, {ID: 2, Name: "menu"}},
		Functions: []Function{
			{ID: 1, Name: "copy_image", Params: []int{10, 11}},
			{ID: 2, Name: "change_ui"},
			{ID: 3, Name: "annotate", Params: []int{12}},
		},
		Params: []Param{
			{ID: 10, Label: "A", ValidationNeeds: "Required"},
			{ID: 11, Label: "B", ValidationNeeds: "Required"},
			{ID: 12, Label: "note", ValidationNeeds: "Optional"},
		},
	}
}

func testDeps() Dependencies {
	return NewDependencies(projector.Config{
		"v2": {"checkout": {}, "login": {}},
		"v1": {"home": {}},
	})
}

func flagsOf(t *testing.T, err error) []string {
	t.Helper()
	var verr *annotate.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	return verr.Flags
}

func TestBindRequiresEveryRequiredParam(t *testing.T) {
	_, err := Bind(testSnapshot(), testDeps(), Draft{
		ComponentKey: "btn1",
		FunctionID:   1,
		Params:       map[string]string{"A": "hello"},
	})
	assert.ErrorIs(t, err, annotate.ErrValidation)
	assert.Equal(t, []string{"param_required:B"}, flagsOf(t, err))

	b, err := Bind(testSnapshot(), testDeps(), Draft{
		ComponentKey: "btn1",
		FunctionID:   1,
		Params:       map[string]string{"A": "hello", "B": "3", "ignored": "x"},
	})
	require.NoError(t, err)
	require.NotNil(t, b.Function)
	assert.Nil(t, b.Dependency)
	assert.Equal(t, map[string]string{"A": "hello", "B": "3"}, b.Function.Params)
}

func TestBindWhitespaceIsNotAValue(t *testing.T) {
	_, err := Bind(testSnapshot(), testDeps(), Draft{
		ComponentKey: "btn1",
		FunctionID:   1,
		Params:       map[string]string{"A": "  ", "B": "x"},
	})
	assert.Equal(t, []string{"param_required:A"}, flagsOf(t, err))
}

func TestBindOptionalParamMayBeOmitted(t *testing.T) {
	b, err := Bind(testSnapshot(), testDeps(), Draft{ComponentKey: "menu", FunctionID: 3})
	require.NoError(t, err)
	assert.Empty(t, b.Function.Params)
}

func TestBindComponentChecks(t *testing.T) {
	_, err := Bind(testSnapshot(), testDeps(), Draft{FunctionID: 2})
	assert.Equal(t, []string{annotate.FlagComponentRequired}, flagsOf(t, err))

	_, err = Bind(testSnapshot(), testDeps(), Draft{ComponentKey: "nope", FunctionID: 2})
	assert.Equal(t, []string{annotate.FlagComponentUnknown}, flagsOf(t, err))

	free := testSnapshot()
	free.Components = nil
	_, err = Bind(free, testDeps(), Draft{ComponentKey: "anything", FunctionID: 2})
	assert.NoError(t, err)
}

func TestBindUnknownFunction(t *testing.T) {
	_, err := Bind(testSnapshot(), testDeps(), Draft{ComponentKey: "btn1", FunctionID: 99})
	assert.Equal(t, []string{annotate.FlagFunctionUnknown}, flagsOf(t, err))
}

func TestBindDependency(t *testing.T) {
	b, err := Bind(testSnapshot(), testDeps(), Draft{ComponentKey: "btn1", Variant: "v2", Activity: "login"})
	require.NoError(t, err)
	require.NotNil(t, b.Dependency)
	assert.Equal(t, "v2", b.Dependency.Variant)
	assert.Equal(t, "login", b.Dependency.Activity)
	assert.Nil(t, b.Function)

	for _, tc := range []struct {
		name  string
		draft Draft
		flags []string
	}{
		{"nothing chosen", Draft{ComponentKey: "btn1"}, []string{annotate.FlagVariantRequired, annotate.FlagActivityRequired}},
		{"activity missing", Draft{ComponentKey: "btn1", Variant: "v1"}, []string{annotate.FlagActivityRequired}},
		{"unknown variant", Draft{ComponentKey: "btn1", Variant: "v9", Activity: "home"}, []string{annotate.FlagVariantUnknown}},
		{"activity of other variant", Draft{ComponentKey: "btn1", Variant: "v1", Activity: "login"}, []string{annotate.FlagActivityUnknown}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Bind(testSnapshot(), testDeps(), tc.draft)
			assert.Equal(t, tc.flags, flagsOf(t, err))
		})
	}
}

func TestDependenciesAreSorted(t *testing.T) {
	d := testDeps()
	assert.Equal(t, []string{"v1", "v2"}, d.Variants())
	assert.Equal(t, []string{"checkout", "login"}, d.Activities("v2"))
	assert.Nil(t, d.Activities("v9"))
}

func TestResolveParamsKeepsDeclarationOrder(t *testing.T) {
	params, err := testSnapshot().ResolveParams(1)
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.Equal(t, "A", params[0].Label)
	assert.True(t, params[1].Required())

	_, err = testSnapshot().ResolveParams(42)
	assert.Error(t, err)

	broken := testSnapshot()
	broken.Functions = append(broken.Functions, Function{ID: 7, Params: []int{404}})
	_, err = broken.ResolveParams(7)
	assert.Error(t, err)
}
