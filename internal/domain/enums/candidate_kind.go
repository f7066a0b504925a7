package enums

import "strings"

type CandidateKind string

const (
	CandidateKindPet   CandidateKind = "pet"
	CandidateKindOwner CandidateKind = "owner"
)

func ParseCandidateKind(raw string) (CandidateKind, bool) {
	switch CandidateKind(strings.ToLower(strings.TrimSpace(raw))) {
	case "", CandidateKindPet:
		return CandidateKindPet, true
	case CandidateKindOwner:
		return CandidateKindOwner, true
	default:
		return "", false
	}
}
