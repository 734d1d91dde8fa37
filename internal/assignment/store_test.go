package assignment

import (
	"testing"

	"github.com/formlab/form-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func categorizeFixture() *models.CategorizeAnswer {
	return &models.CategorizeAnswer{
		Categories: []models.Category{
			{ID: "c1", Name: "Animals"},
			{ID: "c2", Name: "Plants"},
		},
		Items: []models.CategorizeItem{
			{ID: "i1", Label: "Dog"},
			{ID: "i2", Label: "Fern"},
		},
	}
}

func TestAssignItem(t *testing.T) {
	ans := categorizeFixture()

	next := AssignItem(ans, "i1", "c1")
	require.NotNil(t, next.Items[0].CategoryID)
	assert.Equal(t, "c1", *next.Items[0].CategoryID)
	assert.Nil(t, next.Items[1].CategoryID)

	// Input snapshot untouched.
	assert.Nil(t, ans.Items[0].CategoryID)

	// Back to unassigned.
	cleared := AssignItem(next, "i1", "")
	assert.Nil(t, cleared.Items[0].CategoryID)
}

func TestAssignItem_UnknownReferencesIgnored(t *testing.T) {
	ans := categorizeFixture()

	next := AssignItem(ans, "i1", "missing-category")
	assert.Nil(t, next.Items[0].CategoryID)

	next = AssignItem(ans, "missing-item", "c1")
	assert.Equal(t, ans.Items, next.Items)
}

func TestRemoveCategory_CascadesToItems(t *testing.T) {
	meta := &models.CategorizeMeta{
		Categories: []models.Category{{ID: "c1", Name: "Animals"}},
		Items:      []models.CategorizeItem{{ID: "i1", Label: "Dog", CategoryID: strptr("c1")}},
	}

	next := RemoveCategory(meta, "c1")
	assert.Empty(t, next.Categories)
	require.Len(t, next.Items, 1)
	assert.Equal(t, "Dog", next.Items[0].Label)
	assert.Nil(t, next.Items[0].CategoryID)
}

func TestGrouped(t *testing.T) {
	ans := categorizeFixture()
	ans.Items[0].CategoryID = strptr("c1")
	ans.Items = append(ans.Items, models.CategorizeItem{ID: "i3", Label: "Ghost", CategoryID: strptr("deleted")})

	byCat, unassigned := Grouped(ans)
	require.Len(t, byCat["c1"], 1)
	assert.Equal(t, "i1", byCat["c1"][0].ID)
	assert.Empty(t, byCat["c2"])

	// i2 was never assigned; i3 points at a category that no longer exists.
	require.Len(t, unassigned, 2)
	assert.Equal(t, "i2", unassigned[0].ID)
	assert.Equal(t, "i3", unassigned[1].ID)
}

func clozeFixture() *models.ClozeAnswer {
	return &models.ClozeAnswer{
		Text: "The sky is [[b:b1]] and grass is [[b:b2]].",
		Blanks: []models.ClozeBlank{
			{ID: "b1", Answer: "blue"},
			{ID: "b2", Answer: "green"},
		},
		UserMap:     map[string]string{},
		UserAnswers: map[string]string{},
	}
}

func TestAssign_ToBlankDerivesUserAnswers(t *testing.T) {
	ans := clozeFixture()

	next := Assign(ans, "b1", "b1")
	assert.Equal(t, map[string]string{"b1": "b1"}, next.UserMap)
	assert.Equal(t, map[string]string{"b1": "blue"}, next.UserAnswers)

	// Original snapshot untouched.
	assert.Empty(t, ans.UserMap)
}

func TestAssign_ItemOccupiesAtMostOneBlank(t *testing.T) {
	ans := clozeFixture()

	next := Assign(ans, "b1", "b1")
	next = Assign(next, "b1", "b2")

	assert.Equal(t, map[string]string{"b2": "b1"}, next.UserMap)
	assert.Equal(t, map[string]string{"b2": "blue"}, next.UserAnswers)
}

func TestAssign_OverwriteEvictsToBank(t *testing.T) {
	ans := clozeFixture()

	next := Assign(ans, "b1", "b1")
	next = Assign(next, "b2", "b1")

	assert.Equal(t, map[string]string{"b1": "b2"}, next.UserMap)

	remaining := BankRemaining(next)
	require.Len(t, remaining, 1)
	assert.Equal(t, "b1", remaining[0].ID)
}

func TestAssign_ToBankClearsHoldingBlank(t *testing.T) {
	ans := clozeFixture()

	next := Assign(ans, "b1", "b1")
	next = Assign(next, "b1", Bank)

	assert.Empty(t, next.UserMap)
	assert.Empty(t, next.UserAnswers)
	assert.Len(t, BankRemaining(next), 2)
}

func TestAssign_SameSlotIsNoop(t *testing.T) {
	ans := clozeFixture()
	first := Assign(ans, "b1", "b1")
	second := Assign(first, "b1", "b1")
	assert.Equal(t, first.UserMap, second.UserMap)
	assert.Equal(t, first.UserAnswers, second.UserAnswers)
}

func TestAssign_UnknownIDsIgnored(t *testing.T) {
	ans := clozeFixture()

	next := Assign(ans, "nope", "b1")
	assert.Empty(t, next.UserMap)

	next = Assign(ans, "b1", "no-such-blank")
	assert.Empty(t, next.UserMap)
}

func TestClearBlank(t *testing.T) {
	ans := clozeFixture()

	next := Assign(ans, "b1", "b1")
	next = ClearBlank(next, "b1")

	assert.Empty(t, next.UserMap)
	assert.Empty(t, next.UserAnswers)
}

func TestBankRemaining_RecomputedPerChange(t *testing.T) {
	ans := clozeFixture()
	assert.Len(t, BankRemaining(ans), 2)

	one := Assign(ans, "b2", "b1")
	remaining := BankRemaining(one)
	require.Len(t, remaining, 1)
	assert.Equal(t, "b1", remaining[0].ID)

	both := Assign(one, "b1", "b2")
	assert.Empty(t, BankRemaining(both))
}
