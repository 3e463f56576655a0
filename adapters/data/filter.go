package data

import (
	"goreplicate/domain/core"
	"goreplicate/domain/dataset"
)

// ExcludeSubjects drops every observation whose subject is listed. It
// returns the kept observations and how many listed subjects were present.
func ExcludeSubjects[T any](obs []T, subject func(T) core.SubjectID, excluded []core.SubjectID) ([]T, int) {
	if len(excluded) == 0 {
		return obs, 0
	}
	drop := make(map[core.SubjectID]bool, len(excluded))
	for _, id := range excluded {
		drop[id] = true
	}

	kept := make([]T, 0, len(obs))
	hit := make(map[core.SubjectID]bool)
	for _, o := range obs {
		id := subject(o)
		if drop[id] {
			hit[id] = true
			continue
		}
		kept = append(kept, o)
	}
	return kept, len(hit)
}

// SelectSession keeps one session; session 0 keeps all rows.
func SelectSession(obs []dataset.SocialChoice, session int) []dataset.SocialChoice {
	if session == 0 {
		return obs
	}
	kept := make([]dataset.SocialChoice, 0, len(obs))
	for _, o := range obs {
		if o.Session == session {
			kept = append(kept, o)
		}
	}
	return kept
}

// DropBonusOffered removes decisions taken after a completion bonus was offered.
func DropBonusOffered(obs []dataset.EffortChoice) []dataset.EffortChoice {
	kept := make([]dataset.EffortChoice, 0, len(obs))
	for _, o := range obs {
		if !o.BonusOffered {
			kept = append(kept, o)
		}
	}
	return kept
}

// SocialSubject and EffortSubject are the subject accessors used with ExcludeSubjects.
func SocialSubject(o dataset.SocialChoice) core.SubjectID { return o.Subject }
func EffortSubject(o dataset.EffortChoice) core.SubjectID { return o.Subject }

// SubjectIDs returns the subject of every observation, in order.
func SubjectIDs[T any](obs []T, subject func(T) core.SubjectID) []core.SubjectID {
	ids := make([]core.SubjectID, len(obs))
	for i, o := range obs {
		ids[i] = subject(o)
	}
	return ids
}
