package domain

import "time"

const (
	AttrAttribution   = "attribution"
	AttrStationName   = "station_name"
	AttrDescription   = "description"
	AttrStartTime     = "start_time"
	AttrEndTime       = "end_time"
	AttrChapterNumber = "chapter_number"
	AttrNext          = "next"

	Attribution = "Data provided by kan.org.il"

	// Format des horaires côté API Kan (heure locale, sans fuseau).
	GuideTimeLayout = "2006-01-02T15:04:05"
)

// View est l'état affiché d'un capteur. Attributes n'est jamais modifié après
// construction: chaque recalcul produit une nouvelle map.
type View struct {
	State      *string
	Attributes map[string]any
}

// BuildView dérive l'état affiché. Sans guide exploitable, prev est renvoyé tel quel
// (dernière valeur affichée conservée).
func BuildView(prev View, payload *GuidePayload, now time.Time, stationName string) View {
	if payload.Empty() {
		return prev
	}

	sel := Select(payload.Entries, now)
	attrs := map[string]any{
		AttrAttribution: Attribution,
		AttrStationName: stationName,
	}

	var state *string
	if cur := sel.Current; cur != nil {
		title := cur.Title
		state = &title
		attrs[AttrDescription] = cur.Description
		attrs[AttrStartTime] = cur.StartTime.Format(GuideTimeLayout)
		attrs[AttrEndTime] = cur.EndTime.Format(GuideTimeLayout)
		attrs[AttrChapterNumber] = cur.ChapterNumber
	}
	if sel.Next != nil {
		attrs[AttrNext] = sel.Next.Title
	}
	return View{State: state, Attributes: attrs}
}
