package domain

// AttributeKind distinguishes the named, owner-scoped attributes a recipe links to.
type AttributeKind string

const (
	KindTag        AttributeKind = "tag"
	KindIngredient AttributeKind = "ingredient"
)

// MaxNameLength bounds attribute names and recipe titles.
const MaxNameLength = 255

// Valid reports whether k is a known kind.
func (k AttributeKind) Valid() bool {
	return k == KindTag || k == KindIngredient
}

// Field is the request and response field that carries k's id set on a recipe.
func (k AttributeKind) Field() string {
	return string(k) + "s"
}

// Attribute is a tag or an ingredient. Names are not unique per owner.
type Attribute struct {
	ID     int64
	Kind   AttributeKind
	Name   string
	UserID int64
}
