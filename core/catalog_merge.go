package core

import (
	"sort"
	"strconv"
)

// MergeCategories unions incoming into existing by id. Items and
// subcategories are unioned per category and deduplicated by id; incoming
// fields win. Every level is ordered by (display_order, id), which keeps the
// merge idempotent and order independent for disjoint pages.
func MergeCategories(existing []Category, incoming []Category) []Category {
	out := make([]Category, 0, len(existing)+len(incoming))
	index := make(map[EntityID]int, len(existing)+len(incoming))
	for _, group := range [][]Category{existing, incoming} {
		for _, category := range group {
			if position, ok := index[category.ID]; ok {
				out[position] = mergeCategory(out[position], category)
				continue
			}
			index[category.ID] = len(out)
			out = append(out, mergeCategory(Category{}, category))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return orderedBefore(out[i].DisplayOrder, out[i].ID, out[j].DisplayOrder, out[j].ID)
	})
	return out
}

func mergeCategory(base Category, incoming Category) Category {
	merged := cloneCategory(incoming)
	if merged.CreatedAt.IsZero() {
		merged.CreatedAt = base.CreatedAt
	}
	if merged.UpdatedAt.IsZero() {
		merged.UpdatedAt = base.UpdatedAt
	}
	merged.Items = mergeItems(base.Items, incoming.Items)
	merged.SubCategories = mergeSubCategories(base.SubCategories, incoming.SubCategories)
	return merged
}

func mergeItems(existing []Item, incoming []Item) []Item {
	out := make([]Item, 0, len(existing)+len(incoming))
	index := make(map[EntityID]int, len(existing)+len(incoming))
	for _, group := range [][]Item{existing, incoming} {
		for _, item := range group {
			if position, ok := index[item.ID]; ok {
				out[position] = cloneItem(item)
				continue
			}
			index[item.ID] = len(out)
			out = append(out, cloneItem(item))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return orderedBefore(out[i].DisplayOrder, out[i].ID, out[j].DisplayOrder, out[j].ID)
	})
	return out
}

func mergeSubCategories(existing []SubCategory, incoming []SubCategory) []SubCategory {
	out := make([]SubCategory, 0, len(existing)+len(incoming))
	index := make(map[EntityID]int, len(existing)+len(incoming))
	for _, group := range [][]SubCategory{existing, incoming} {
		for _, sub := range group {
			if position, ok := index[sub.ID]; ok {
				out[position] = sub
				continue
			}
			index[sub.ID] = len(out)
			out = append(out, sub)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return orderedBefore(out[i].DisplayOrder, out[i].ID, out[j].DisplayOrder, out[j].ID)
	})
	return out
}

func orderedBefore(leftOrder int, leftID EntityID, rightOrder int, rightID EntityID) bool {
	if leftOrder != rightOrder {
		return leftOrder < rightOrder
	}
	return compareIDs(leftID, rightID) < 0
}

// compareIDs orders numeric ids numerically and everything else lexically.
func compareIDs(left EntityID, right EntityID) int {
	leftNumber, leftErr := strconv.ParseInt(string(left), 10, 64)
	rightNumber, rightErr := strconv.ParseInt(string(right), 10, 64)
	switch {
	case leftErr == nil && rightErr == nil:
		switch {
		case leftNumber < rightNumber:
			return -1
		case leftNumber > rightNumber:
			return 1
		}
		return 0
	case leftErr == nil:
		return -1
	case rightErr == nil:
		return 1
	}
	switch {
	case left < right:
		return -1
	case left > right:
		return 1
	}
	return 0
}
