package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryKey(t *testing.T) {
	tests := []struct {
		label    string
		expected string
	}{
		{"Food & Snacks", "food"},
		{"food", "food"},
		{"  Cosmetics & Beauty ", "cosmetics"},
		{"Pet Food", "pet-food"},
		{"Health Supplements", "supplements"},
		{"Garden Tools!", "garden-tools"},
		{"", ""},
	}
	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			assert.Equal(t, tc.expected, CategoryKey(tc.label))
		})
	}
}

func TestBatchesAreIndependentCopies(t *testing.T) {
	first := Batches()
	first[0].Questions[1].Options[0] = "mutated"

	second := Batches()
	assert.Equal(t, "Food & Snacks", second[0].Questions[1].Options[0])
	assert.Len(t, second, 3)
	for i, batch := range second {
		assert.Equal(t, i+1, batch.Step)
		assert.NotEmpty(t, batch.Questions)
	}
}

func TestQuestionCheck(t *testing.T) {
	required := Question{ID: "x", Type: Text, Required: true}
	optional := Question{ID: "y", Type: TextArea}
	single := Question{ID: "s", Type: Select, Required: true, Options: []string{"Yes", "No"}}
	multi := Question{ID: "m", Type: MultiSelect, Options: []string{"Nuts", "Dairy"}}

	assert.NotEmpty(t, required.Check(""))
	assert.NotEmpty(t, required.Check("   "))
	assert.Empty(t, required.Check("value"))
	assert.Empty(t, optional.Check(nil))
	assert.Empty(t, single.Check("yes"))
	assert.NotEmpty(t, single.Check("Maybe"))
	assert.Empty(t, multi.Check([]any{"Nuts", "Dairy"}))
	assert.NotEmpty(t, multi.Check([]string{"Nuts", "Soy"}))
}

func TestAnswerHelpers(t *testing.T) {
	assert.True(t, IsBlank(nil))
	assert.True(t, IsBlank([]any{" ", ""}))
	assert.False(t, IsBlank(false))
	assert.Equal(t, "Organic, Fair Trade", AnswerText([]any{"Organic", " Fair Trade "}))
	assert.Equal(t, "3", AnswerText(float64(3)))
	assert.Equal(t, []string{"Organic", "Fair Trade", "Kosher"}, AnswerList("Organic, Fair Trade; Kosher"))
}

func TestIsTopLevel(t *testing.T) {
	assert.True(t, IsTopLevel(FieldDescription))
	assert.False(t, IsTopLevel("ingredients"))
}
