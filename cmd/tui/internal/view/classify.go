package view

import (
	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/budgeteer/internal/category"
	"github.com/MrJamesThe3rd/budgeteer/internal/transaction"
)

// classChoice is one selectable category/subcategory pair. The zero value means uncategorized.
type classChoice struct {
	CategoryID    uuid.NullUUID
	SubcategoryID uuid.NullUUID
}

func choiceOf(c transaction.Classification) classChoice {
	return classChoice{CategoryID: c.CategoryID, SubcategoryID: c.SubcategoryID}
}

func (c classChoice) classification(discarded bool) transaction.Classification {
	return transaction.Classification{
		CategoryID:    c.CategoryID,
		SubcategoryID: c.SubcategoryID,
		IsDiscarded:   discarded,
	}
}

// classOptions lists "Uncategorized", then every category followed by its subcategories.
func classOptions(cats []*category.Category) []huh.Option[classChoice] {
	opts := []huh.Option[classChoice]{huh.NewOption("Uncategorized", classChoice{})}

	for _, c := range cats {
		catID := transaction.SomeID(c.ID)
		opts = append(opts, huh.NewOption(c.Name, classChoice{CategoryID: catID}))

		for _, sub := range c.Subcategories {
			opts = append(opts, huh.NewOption(
				c.Name+" / "+sub.Name,
				classChoice{CategoryID: catID, SubcategoryID: transaction.SomeID(sub.ID)},
			))
		}
	}

	return opts
}

// classLabel renders a classification for table cells.
func classLabel(c transaction.Classification, cats []*category.Category) string {
	if c.IsDiscarded {
		return "discarded"
	}

	if !c.CategoryID.Valid {
		return "-"
	}

	for _, cat := range cats {
		if cat.ID != c.CategoryID.UUID {
			continue
		}

		if !c.SubcategoryID.Valid {
			return cat.Name
		}

		if sub, ok := cat.Subcategory(c.SubcategoryID.UUID); ok {
			return cat.Name + " / " + sub.Name
		}

		return cat.Name
	}

	return "?"
}
