package importer

import (
	"fmt"

	"github.com/Dosada05/tournament-registration/models"
)

func genderValue(g *models.Gender) string {
	if g == nil {
		return ""
	}
	return string(*g)
}

// checkSingleGender applies the eligibility rule for a single entry. Contents
// without a concrete gender (none, mixed) accept anyone.
func checkSingleGender(content *models.TournamentContent, ident *models.Identity, errs *rowErrors) {
	required, ok := content.RequiredGender()
	if !ok {
		return
	}
	if ident.Gender == nil {
		errs.add("gender", msgGenderNotSet, "")
		return
	}
	if *ident.Gender != required {
		errs.add("gender", fmt.Sprintf("user gender is %s, but this content requires %s", *ident.Gender, required), string(*ident.Gender))
	}
}

// checkDoubleGender applies the pair rule: mixed needs two set and different
// genders, a concrete requirement needs both players to match it.
func checkDoubleGender(content *models.TournamentContent, p1, p2 *models.Identity, errs *rowErrors) {
	if content.GenderRequirement == models.GenderMixed {
		if p1.Gender == nil {
			errs.add("player1Gender", "player1 "+msgGenderNotSet, "")
		}
		if p2.Gender == nil {
			errs.add("player2Gender", "player2 "+msgGenderNotSet, "")
		}
		if p1.Gender != nil && p2.Gender != nil && *p1.Gender == *p2.Gender {
			errs.add("gender", fmt.Sprintf("mixed doubles requires one male and one female player, but both players are %s", *p1.Gender), genderValue(p1.Gender))
		}
		return
	}

	required, ok := content.RequiredGender()
	if !ok {
		return
	}
	for i, p := range []*models.Identity{p1, p2} {
		field := fmt.Sprintf("player%dGender", i+1)
		if p.Gender == nil {
			errs.add(field, fmt.Sprintf("player%d %s", i+1, msgGenderNotSet), "")
			continue
		}
		if *p.Gender != required {
			errs.add(field, fmt.Sprintf("player%d gender is %s, but this content requires %s", i+1, *p.Gender, required), string(*p.Gender))
		}
	}
}
