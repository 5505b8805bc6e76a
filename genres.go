package sdk

// Genre identifies a catalog genre. Values mirror the server enum verbatim;
// display names and localization are the consumer's concern.
type Genre string

const (
	GenreLiteraryFiction     Genre = "LITERARY_FICTION"
	GenreContemporaryFiction Genre = "CONTEMPORARY_FICTION"
	GenreHistoricalFiction   Genre = "HISTORICAL_FICTION"
	GenreScienceFiction      Genre = "SCIENCE_FICTION"
	GenreFantasy             Genre = "FANTASY"
	GenreMagicalRealism      Genre = "MAGICAL_REALISM"
	GenreMystery             Genre = "MYSTERY"
	GenreThriller            Genre = "THRILLER"
	GenreHorror              Genre = "HORROR"
	GenreRomance             Genre = "ROMANCE"
	GenreAdventure           Genre = "ADVENTURE"
	GenreAction              Genre = "ACTION"
	GenreDystopian           Genre = "DYSTOPIAN"
	GenreUtopian             Genre = "UTOPIAN"
	GenrePostApocalyptic     Genre = "POST_APOCALYPTIC"
	GenreSteampunk           Genre = "STEAMPUNK"
	GenreCyberpunk           Genre = "CYBERPUNK"
	GenreCrimeFiction        Genre = "CRIME_FICTION"
	GenreNoir                Genre = "NOIR"
	GenreComedy              Genre = "COMEDY"
	GenreSatire              Genre = "SATIRE"
	GenreFable               Genre = "FABLE"
	GenreParable             Genre = "PARABLE"
	GenreMythology           Genre = "MYTHOLOGY"
	GenreWestern             Genre = "WESTERN"
	GenreBiography           Genre = "BIOGRAPHY"
	GenreAutobiography       Genre = "AUTOBIOGRAPHY"
	GenreMemoir              Genre = "MEMOIR"
	GenreHistory             Genre = "HISTORY"
	GenreScience             Genre = "SCIENCE"
	GenrePopularScience      Genre = "POPULAR_SCIENCE"
	GenrePhilosophy          Genre = "PHILOSOPHY"
	GenrePolitics            Genre = "POLITICS"
	GenreEconomics           Genre = "ECONOMICS"
	GenreSociology           Genre = "SOCIOLOGY"
	GenrePsychology          Genre = "PSYCHOLOGY"
	GenreSpirituality        Genre = "SPIRITUALITY"
	GenreReligion            Genre = "RELIGION"
	GenreTravel              Genre = "TRAVEL"
	GenreFood                Genre = "FOOD"
	GenreEssay               Genre = "ESSAY"
	GenreTechnical           Genre = "TECHNICAL"
	GenreArt                 Genre = "ART"
	GenrePoetry              Genre = "POETRY"
	GenreDrama               Genre = "DRAMA"
	GenreTragedy             Genre = "TRAGEDY"
	GenreNovella             Genre = "NOVELLA"
	GenreManwha              Genre = "MANWHA"
)

// GenreStat is one row of the catalog's per-genre breakdown.
type GenreStat struct {
	Genre Genre `json:"genre"`
	Count int64 `json:"count"`
}
