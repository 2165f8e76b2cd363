package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CredentialPair is written and cleared as a unit. An access token without a
// refresh token is tolerated; the reverse is never stored.
type CredentialPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (p CredentialPair) Validate() error {
	if strings.TrimSpace(p.AccessToken) == "" {
		return fmt.Errorf("core: access token is required")
	}
	return nil
}

func (p CredentialPair) CanRefresh() bool {
	return strings.TrimSpace(p.RefreshToken) != ""
}

// EntityID accepts both JSON strings and JSON numbers.
type EntityID string

func (id *EntityID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*id = EntityID(strings.TrimSpace(value))
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("core: invalid entity id %s", string(data))
	}
	*id = EntityID(number.String())
	return nil
}

func (id EntityID) String() string { return string(id) }

// Amount accepts prices encoded as numbers or numeric strings.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*a = 0
			return nil
		}
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("core: invalid amount %q", raw)
		}
		*a = Amount(parsed)
		return nil
	}
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*a = Amount(value)
	return nil
}

type SubCategory struct {
	ID           EntityID `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	DisplayOrder int      `json:"display_order"`
	IsActive     bool     `json:"is_active"`
}

type ItemVariant struct {
	ID       EntityID `json:"id"`
	Name     string   `json:"name"`
	Price    Amount   `json:"price"`
	IsActive bool     `json:"is_active"`
}

type ItemAddOn struct {
	ID       EntityID `json:"id"`
	Name     string   `json:"name"`
	Price    Amount   `json:"price"`
	IsActive bool     `json:"is_active"`
}

type Item struct {
	ID             EntityID      `json:"id"`
	Name           string        `json:"name"`
	Price          Amount        `json:"price"`
	PackagingPrice Amount        `json:"packaging_price"`
	GSTRate        Amount        `json:"gst_rate"`
	ItemType       string        `json:"item_type,omitempty"`
	IsActive       bool          `json:"is_active"`
	DisplayOrder   int           `json:"display_order"`
	SubCategoryID  *EntityID     `json:"sub_category_id,omitempty"`
	ImageRefs      []string      `json:"image_refs,omitempty"`
	Variants       []ItemVariant `json:"variants,omitempty"`
	AddOns         []ItemAddOn   `json:"add_ons,omitempty"`
}

// Category owns its items and subcategories. Item.SubCategoryID is only a
// grouping reference into SubCategories.
type Category struct {
	ID            EntityID      `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	DisplayOrder  int           `json:"display_order"`
	IsActive      bool          `json:"is_active"`
	Items         []Item        `json:"items"`
	SubCategories []SubCategory `json:"sub_categories"`
	CreatedAt     time.Time     `json:"created_at,omitzero"`
	UpdatedAt     time.Time     `json:"updated_at,omitzero"`
}

func (c Category) ItemIndex(itemID EntityID) int {
	for index, item := range c.Items {
		if item.ID == itemID {
			return index
		}
	}
	return -1
}

func (c Category) SubCategoryIndex(subCategoryID EntityID) int {
	for index, sub := range c.SubCategories {
		if sub.ID == subCategoryID {
			return index
		}
	}
	return -1
}

// Cursor tracks pagination. LastFetchedPage only grows, except on reset.
// After a fetch CurrentPage is the page just fetched. After a snapshot
// restore it is the page the next fetch will load, LastFetchedPage+1, since
// nothing was fetched yet. NextPage is the same in both states.
type Cursor struct {
	CurrentPage     int  `json:"current_page"`
	LastFetchedPage int  `json:"last_fetched_page"`
	HasMore         bool `json:"has_more"`
}

func InitialCursor() Cursor {
	return Cursor{CurrentPage: 1, LastFetchedPage: 0, HasMore: true}
}

func (c Cursor) NextPage() int {
	return c.LastFetchedPage + 1
}

type Snapshot struct {
	Categories      []Category `json:"categories"`
	LastFetchedPage int        `json:"last_fetched_page"`
}

type PartnerProfile struct {
	ID           EntityID       `json:"id"`
	Name         string         `json:"name"`
	BusinessName string         `json:"business_name,omitempty"`
	Email        string         `json:"email,omitempty"`
	Phone        string         `json:"phone,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func cloneItem(in Item) Item {
	out := in
	if in.SubCategoryID != nil {
		value := *in.SubCategoryID
		out.SubCategoryID = &value
	}
	out.ImageRefs = append([]string(nil), in.ImageRefs...)
	out.Variants = append([]ItemVariant(nil), in.Variants...)
	out.AddOns = append([]ItemAddOn(nil), in.AddOns...)
	return out
}

func cloneCategory(in Category) Category {
	out := in
	out.Items = make([]Item, len(in.Items))
	for index, item := range in.Items {
		out.Items[index] = cloneItem(item)
	}
	out.SubCategories = append([]SubCategory(nil), in.SubCategories...)
	if out.SubCategories == nil {
		out.SubCategories = []SubCategory{}
	}
	return out
}

func cloneCategories(in []Category) []Category {
	out := make([]Category, len(in))
	for index, category := range in {
		out[index] = cloneCategory(category)
	}
	return out
}

// CloneSnapshot deep-copies a snapshot for stores that hand values across
// goroutines.
func CloneSnapshot(in Snapshot) Snapshot {
	return cloneSnapshot(in)
}

func cloneSnapshot(in Snapshot) Snapshot {
	return Snapshot{
		Categories:      cloneCategories(in.Categories),
		LastFetchedPage: in.LastFetchedPage,
	}
}

func cloneProfile(in PartnerProfile) PartnerProfile {
	out := in
	if len(in.Metadata) > 0 {
		out.Metadata = make(map[string]any, len(in.Metadata))
		for key, value := range in.Metadata {
			out.Metadata[key] = value
		}
	}
	return out
}
