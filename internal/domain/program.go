package domain

import "time"

// ProgramEntry est une émission du guide. Immuable une fois parsée.
type ProgramEntry struct {
	Title         string    `json:"title"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	Description   string    `json:"description"`
	ChapterNumber int       `json:"chapterNumber"`
}

// Contains indique si t tombe dans [StartTime, EndTime).
func (p ProgramEntry) Contains(t time.Time) bool {
	return !t.Before(p.StartTime) && t.Before(p.EndTime)
}

// GuidePayload est le guide d'une station pour un jour donné, dans l'ordre reçu.
type GuidePayload struct {
	StationID string
	Day       time.Time
	Entries   []ProgramEntry
	FetchedAt time.Time
}

// Empty est vrai pour un guide absent ou sans émission.
func (g *GuidePayload) Empty() bool {
	return g == nil || len(g.Entries) == 0
}

type Selection struct {
	Current *ProgramEntry
	Next    *ProgramEntry
}

// Select cherche l'émission en cours et la suivante par un seul parcours.
// L'ordre des entrées n'est pas supposé trié: en cas d'égalité (chevauchement,
// même heure de début) la première rencontrée gagne.
func Select(entries []ProgramEntry, now time.Time) Selection {
	var sel Selection
	for i := range entries {
		e := &entries[i]
		if sel.Current == nil && e.Contains(now) {
			sel.Current = e
		}
		if e.StartTime.After(now) && (sel.Next == nil || e.StartTime.Before(sel.Next.StartTime)) {
			sel.Next = e
		}
	}
	return sel
}
