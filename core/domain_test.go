package core

import (
	"encoding/json"
	"testing"
)

func TestEntityIDAndAmountAcceptMixedEncodings(t *testing.T) {
	var decoded struct {
		ID      EntityID  `json:"id"`
		Other   EntityID  `json:"other"`
		Missing EntityID  `json:"missing"`
		Price   Amount    `json:"price"`
		Tax     Amount    `json:"tax"`
		Empty   Amount    `json:"empty"`
		Sub     *EntityID `json:"sub"`
	}
	raw := `{"id": 42, "other": " abc ", "missing": null, "price": "12.50", "tax": 5, "empty": "", "sub": "7"}`
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.ID != "42" || decoded.Other != "abc" || decoded.Missing != "" {
		t.Fatalf("unexpected ids %+v", decoded)
	}
	if decoded.Price != 12.5 || decoded.Tax != 5 || decoded.Empty != 0 {
		t.Fatalf("unexpected amounts %+v", decoded)
	}
	if decoded.Sub == nil || *decoded.Sub != "7" {
		t.Fatalf("expected sub category reference 7, got %v", decoded.Sub)
	}
}

func TestAmountRejectsNonNumericString(t *testing.T) {
	var amount Amount
	if err := json.Unmarshal([]byte(`"twelve"`), &amount); err == nil {
		t.Fatalf("expected invalid amount error")
	}
}

func TestCursorNextPage(t *testing.T) {
	cursor := InitialCursor()
	if cursor.NextPage() != 1 || !cursor.HasMore {
		t.Fatalf("unexpected initial cursor %+v", cursor)
	}
	cursor.LastFetchedPage = 3
	if cursor.NextPage() != 4 {
		t.Fatalf("expected next page 4, got %d", cursor.NextPage())
	}
}
