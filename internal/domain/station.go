package domain

import "time"

const (
	DefaultPollInterval = 15 * time.Minute
	DefaultIcon         = "mdi:radio"
	EntityDomain        = "kan_program"
)

// StationNames reprend la table d'origine après résolution des doublons:
// "8" était déclaré deux fois ("Kan Moreshet" puis "Kan Bet"), la dernière valeur gagne.
// "3" et "10" restent des noms provisoires.
var StationNames = map[string]string{
	"1":  "Kan 11",
	"2":  "Makan",
	"3":  "Kan ?",
	"4":  "Kan 88",
	"5":  "Kan Tarbut",
	"6":  "Kan Reka",
	"7":  "Kan Kol Hamusika",
	"8":  "Kan Bet",
	"9":  "Kan Gimel",
	"10": "Kan ?",
}

// StationName renvoie le nom connu pour un identifiant de station.
func StationName(stationID string) (string, bool) {
	name, ok := StationNames[stationID]
	return name, ok
}

// StationConfig décrit une station suivie. Ne change plus après construction.
type StationConfig struct {
	StationID    string        `json:"stationId" yaml:"station_id"`
	DisplayName  string        `json:"name" yaml:"name"`
	PollInterval time.Duration `json:"scanInterval" yaml:"scan_interval"`
}
