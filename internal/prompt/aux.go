package prompt

import (
	"strings"

	"worldforge/internal/schemas"
)

// BuildCharacterNamePrompt renders the name generation documents.
func BuildCharacterNamePrompt(in schemas.CharacterNameInput) (system, user string, err error) {
	view := struct {
		RaceName, Inspiration, Phonemes, LanguageStructure, Context, ExistingNames string
	}{
		RaceName:          in.RaceName,
		Inspiration:       None,
		Phonemes:          None,
		LanguageStructure: None,
		Context:           orNone(in.Context),
		ExistingNames:     strings.Join(in.ExistingNames, ", "),
	}
	if p := in.NamingProfile; p != nil {
		view.Inspiration = orNone(p.Inspiration)
		view.Phonemes = orNone(p.Phonemes)
		view.LanguageStructure = orNone(p.LanguageStructure)
	}
	return renderPair("name", view)
}

// BuildNamingProfilePrompt renders the naming profile documents.
func BuildNamingProfilePrompt(in schemas.NamingProfileInput) (system, user string, err error) {
	return renderPair("profile", in)
}

// BuildCataclysmPrompt renders the cataclysm documents.
func BuildCataclysmPrompt(in schemas.CataclysmInput) (system, user string, err error) {
	view := in
	view.Preparations = orNone(in.Preparations)
	return renderPair("cataclysm", view)
}

// BuildDeathsPrompt renders the death narrative documents.
func BuildDeathsPrompt(in schemas.DeathsInput) (system, user string, err error) {
	view := struct {
		RaceName    string
		Names       string
		NameList    []string
		Reason      string
		CurrentYear int
	}{
		RaceName:    in.RaceName,
		Names:       joinOrNone(in.NotableCharacterNames),
		NameList:    in.NotableCharacterNames,
		Reason:      orNone(in.ReasonForDeaths),
		CurrentYear: in.CurrentYear,
	}
	return renderPair("deaths", view)
}
