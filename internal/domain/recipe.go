package domain

import (
	"path"
	"slices"
	"strings"
)

// RecipeImageDir is the blob namespace recipe images are written under.
const RecipeImageDir = "uploads/recipe"

// Recipe is a user's recipe. TagIDs and IngredientIDs are sets, kept sorted.
type Recipe struct {
	ID            int64
	UserID        int64
	Title         string
	TimeMinutes   int
	Price         Price
	Link          string
	Image         string // blob path, empty when no image was uploaded
	ImageBlurHash string
	TagIDs        []int64
	IngredientIDs []int64
}

// LinkIDs returns the id set for kind.
func (r *Recipe) LinkIDs(kind AttributeKind) []int64 {
	if kind == KindTag {
		return r.TagIDs
	}
	return r.IngredientIDs
}

// SetLinkIDs replaces the id set for kind.
func (r *Recipe) SetLinkIDs(kind AttributeKind, ids []int64) {
	ids = IDSet(ids)
	if kind == KindTag {
		r.TagIDs = ids
	} else {
		r.IngredientIDs = ids
	}
}

// IDSet returns ids sorted with duplicates removed. The result is never nil.
func IDSet(ids []int64) []int64 {
	out := slices.Clone(ids)
	if out == nil {
		out = []int64{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// RecipeImagePath builds "uploads/recipe/<opaque>.<ext>" where ext is whatever
// follows the last dot of filename. fallbackExt is used when filename has no
// dot, nothing follows it, or it would escape the namespace.
func RecipeImagePath(opaque, filename, fallbackExt string) string {
	ext := ""
	if i := strings.LastIndexByte(filename, '.'); i >= 0 {
		ext = filename[i+1:]
	}
	if ext == "" || strings.ContainsAny(ext, `/\`) {
		ext = fallbackExt
	}
	return path.Join(RecipeImageDir, opaque+"."+ext)
}
