// Package assignment maintains slot/item mappings for both drag-and-drop
// cases: item-to-category assignment (categorize) and bank-item-to-blank
// assignment (cloze fill). Every operation returns a new snapshot rather
// than mutating its input, so callers get equality-based change detection
// for free.
package assignment

import "github.com/formlab/form-service/internal/models"

// Bank is the cloze-fill destination meaning "back to the word bank".
const Bank = "bank"

// ===== CATEGORIZE MODE =====

// AssignItem returns a copy of ans with itemID pointing at categoryID, or
// unassigned when categoryID is empty. Unknown item ids and references to
// nonexistent categories are ignored defensively.
func AssignItem(ans *models.CategorizeAnswer, itemID, categoryID string) *models.CategorizeAnswer {
	next := copyCategorize(ans)

	if categoryID != "" && !hasCategory(next.Categories, categoryID) {
		return next
	}
	for i, it := range next.Items {
		if it.ID != itemID {
			continue
		}
		if categoryID == "" {
			next.Items[i].CategoryID = nil
		} else {
			cid := categoryID
			next.Items[i].CategoryID = &cid
		}
		break
	}
	return next
}

// RemoveCategory drops categoryID from the authored meta and atomically
// nulls out every item still pointing at it. The cascade is mandatory: no
// item may be left referencing a category that no longer exists.
func RemoveCategory(meta *models.CategorizeMeta, categoryID string) *models.CategorizeMeta {
	next := &models.CategorizeMeta{
		Items: append([]models.CategorizeItem(nil), meta.Items...),
	}
	for _, c := range meta.Categories {
		if c.ID != categoryID {
			next.Categories = append(next.Categories, c)
		}
	}
	for i, it := range next.Items {
		if it.CategoryID != nil && *it.CategoryID == categoryID {
			next.Items[i].CategoryID = nil
		}
	}
	return next
}

// Grouped returns item ids per category id plus the unassigned remainder,
// in item order. Items pointing at unknown categories count as unassigned.
func Grouped(ans *models.CategorizeAnswer) (byCategory map[string][]models.CategorizeItem, unassigned []models.CategorizeItem) {
	byCategory = make(map[string][]models.CategorizeItem, len(ans.Categories))
	for _, c := range ans.Categories {
		byCategory[c.ID] = nil
	}
	for _, it := range ans.Items {
		if it.Assigned() {
			if _, ok := byCategory[*it.CategoryID]; ok {
				byCategory[*it.CategoryID] = append(byCategory[*it.CategoryID], it)
				continue
			}
		}
		unassigned = append(unassigned, it)
	}
	return byCategory, unassigned
}

func hasCategory(categories []models.Category, id string) bool {
	for _, c := range categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

func copyCategorize(ans *models.CategorizeAnswer) *models.CategorizeAnswer {
	return &models.CategorizeAnswer{
		Categories: append([]models.Category(nil), ans.Categories...),
		Items:      append([]models.CategorizeItem(nil), ans.Items...),
	}
}

// ===== CLOZE-FILL MODE =====

// BankItem is a draggable answer candidate. The bank is derived 1:1 from the
// authored blanks: item id equals blank id and the label is the blank's
// authored answer, so the bank always contains exactly the correct answers
// with no distractors. Intentional for this assessment style; do not add
// distractors without a grading feature.
type BankItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// BankItems derives the full, unordered word bank for a cloze answer state.
func BankItems(ans *models.ClozeAnswer) []BankItem {
	items := make([]BankItem, len(ans.Blanks))
	for i, b := range ans.Blanks {
		items[i] = BankItem{ID: b.ID, Label: b.Answer}
	}
	return items
}

// BankRemaining lists bank items not currently assigned to any blank.
func BankRemaining(ans *models.ClozeAnswer) []BankItem {
	used := make(map[string]bool, len(ans.UserMap))
	for _, itemID := range ans.UserMap {
		used[itemID] = true
	}
	var remaining []BankItem
	for _, it := range BankItems(ans) {
		if !used[it.ID] {
			remaining = append(remaining, it)
		}
	}
	return remaining
}

// Assign returns a copy of ans with itemID moved to dest. dest is either a
// blank id or Bank. Dropping on the bank clears whichever blank holds the
// item. Dropping on a blank first clears the item's previous blank, keeping
// each item on at most one blank, then overwrites the destination; whatever
// occupied it is implicitly evicted back to the bank. Unknown item or blank
// ids are no-ops, as is re-dropping an item onto the blank it already holds.
func Assign(ans *models.ClozeAnswer, itemID, dest string) *models.ClozeAnswer {
	if !hasBankItem(ans, itemID) {
		return copyCloze(ans)
	}

	if dest == Bank {
		next := copyCloze(ans)
		for blankID, assigned := range next.UserMap {
			if assigned == itemID {
				delete(next.UserMap, blankID)
				break
			}
		}
		syncUserAnswers(next)
		return next
	}

	if !hasBlank(ans, dest) {
		return copyCloze(ans)
	}
	if ans.UserMap[dest] == itemID {
		return copyCloze(ans)
	}

	next := copyCloze(ans)
	for blankID, assigned := range next.UserMap {
		if assigned == itemID {
			delete(next.UserMap, blankID)
		}
	}
	next.UserMap[dest] = itemID
	syncUserAnswers(next)
	return next
}

// ClearBlank returns a copy of ans with the given blank emptied.
func ClearBlank(ans *models.ClozeAnswer, blankID string) *models.ClozeAnswer {
	next := copyCloze(ans)
	delete(next.UserMap, blankID)
	syncUserAnswers(next)
	return next
}

// syncUserAnswers rebuilds the derived answer-text map from UserMap. It is
// never settable independently; completion checks read only this map.
func syncUserAnswers(ans *models.ClozeAnswer) {
	labels := make(map[string]string, len(ans.Blanks))
	for _, b := range ans.Blanks {
		labels[b.ID] = b.Answer
	}
	ans.UserAnswers = make(map[string]string, len(ans.UserMap))
	for blankID, itemID := range ans.UserMap {
		if label, ok := labels[itemID]; ok {
			ans.UserAnswers[blankID] = label
		}
	}
}

func hasBlank(ans *models.ClozeAnswer, id string) bool {
	for _, b := range ans.Blanks {
		if b.ID == id {
			return true
		}
	}
	return false
}

func hasBankItem(ans *models.ClozeAnswer, id string) bool {
	// Bank items are derived 1:1 from blanks, so the id sets coincide.
	return hasBlank(ans, id)
}

func copyCloze(ans *models.ClozeAnswer) *models.ClozeAnswer {
	next := &models.ClozeAnswer{
		Text:        ans.Text,
		Blanks:      append([]models.ClozeBlank(nil), ans.Blanks...),
		UserMap:     make(map[string]string, len(ans.UserMap)),
		UserAnswers: make(map[string]string, len(ans.UserAnswers)),
	}
	for k, v := range ans.UserMap {
		next.UserMap[k] = v
	}
	for k, v := range ans.UserAnswers {
		next.UserAnswers[k] = v
	}
	return next
}
