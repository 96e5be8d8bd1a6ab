// Package pucs implements the Product Use Category hierarchy.
// A PUC is addressed by its general category, product family and product
// type; empty lower levels place it higher in the tree.
package pucs

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind classifies what a PUC describes.
type Kind string

const (
	KindFormulation Kind = "FO"
	KindArticle     Kind = "AR"
	KindOccupation  Kind = "OC"
	KindUnknown     Kind = "UN"
)

var kindNames = map[Kind]string{
	KindFormulation: "Formulation",
	KindArticle:     "Article",
	KindOccupation:  "Occupation",
	KindUnknown:     "Unknown",
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// Name returns the display name of the kind.
func (k Kind) Name() string {
	return kindNames[k]
}

// KindInfo pairs a kind code with its display name.
type KindInfo struct {
	Code Kind   `json:"code"`
	Name string `json:"name"`
}

// Kinds lists the known kinds in declaration order.
func Kinds() []KindInfo {
	return []KindInfo{
		{KindFormulation, kindNames[KindFormulation]},
		{KindArticle, kindNames[KindArticle]},
		{KindOccupation, kindNames[KindOccupation]},
		{KindUnknown, kindNames[KindUnknown]},
	}
}

// Level is the depth of a PUC in the hierarchy.
type Level int

const (
	LevelGeneralCategory Level = 1
	LevelProductFamily   Level = 2
	LevelProductType     Level = 3
)

// LevelOf derives the level from the optional hierarchy fields.
func LevelOf(prodFam, prodType string) Level {
	switch {
	case prodFam == "":
		return LevelGeneralCategory
	case prodType == "":
		return LevelProductFamily
	default:
		return LevelProductType
	}
}

// PUC is a node of the Product Use Category hierarchy with its product counts.
// ProductCount counts products whose uberpuc is this node. CumulativeProductCount
// adds the counts of every descendant.
type PUC struct {
	ID                     uuid.UUID `json:"id"`
	Kind                   Kind      `json:"kind"`
	GenCat                 string    `json:"gen_cat"`
	ProdFam                string    `json:"prod_fam"`
	ProdType               string    `json:"prod_type"`
	Description            string    `json:"description"`
	LastEditedBy           string    `json:"last_edited_by"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
	Level                  Level     `json:"level"`
	ProductCount           int64     `json:"product_count"`
	CumulativeProductCount int64     `json:"cumulative_product_count"`
}

// Path returns the non-empty hierarchy segments from the root down.
func (p PUC) Path() []string {
	path := []string{p.GenCat}
	if p.ProdFam != "" {
		path = append(path, p.ProdFam)
	}
	if p.ProdType != "" {
		path = append(path, p.ProdType)
	}
	return path
}

func (p PUC) String() string {
	return strings.Join(p.Path(), " > ")
}

// ProductSummary is a product listed under the PUC that is its uberpuc.
type ProductSummary struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	UPC          string    `json:"upc"`
	BrandName    string    `json:"brand_name"`
	Manufacturer string    `json:"manufacturer"`
	Method       string    `json:"classification_method"`
}

// CreateCommand carries the fields of a new PUC. An empty Kind defaults to UN.
type CreateCommand struct {
	Kind        Kind   `json:"kind"`
	GenCat      string `json:"gen_cat"`
	ProdFam     string `json:"prod_fam"`
	ProdType    string `json:"prod_type"`
	Description string `json:"description"`
}

// UpdateCommand replaces the editable fields of a PUC.
type UpdateCommand CreateCommand

func (c *CreateCommand) normalize() error {
	c.GenCat = strings.TrimSpace(c.GenCat)
	c.ProdFam = strings.TrimSpace(c.ProdFam)
	c.ProdType = strings.TrimSpace(c.ProdType)

	if c.Kind == "" {
		c.Kind = KindUnknown
	}
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	if c.GenCat == "" {
		return ErrGenCatRequired
	}
	if c.ProdType != "" && c.ProdFam == "" {
		return ErrInvalidHierarchy
	}
	return nil
}
