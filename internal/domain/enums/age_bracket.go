package enums

type AgeBracket string

const (
	AgeBracketPuppy  AgeBracket = "puppy"
	AgeBracketYoung  AgeBracket = "young"
	AgeBracketAdult  AgeBracket = "adult"
	AgeBracketSenior AgeBracket = "senior"
)
