// Package genre provides the closed genre enumeration used by song metadata and
// the normalizing matcher that turns free-text genre tags into genre codes.
package genre

import "strings"

// Genre is a numeric genre code. The numbering is persisted in playlist files
// and the first 80 values follow the ID3v1 genre byte, so never reorder.
type Genre int16

// None marks the absence of a genre.
const None Genre = -1

// ID3v1 genres.
const (
	Blues Genre = iota
	ClassicRock
	Country
	Dance
	Disco
	Funk
	Grunge
	HipHop
	Jazz
	Metal
	NewAge
	Oldies
	Other
	Pop
	RNB
	Rap
	Reggae
	Rock
	Techno
	Industrial
	Alternative
	Ska
	DeathMetal
	Pranks
	Soundtrack
	EuroTechno
	Ambient
	TripHop
	Vocal
	JazzFunk
	Fusion
	Trance
	Classical
	Instrumental
	Acid
	House
	Game
	SoundClip
	Gospel
	Noise
	AlternRock
	Bass
	Soul
	Punk
	Space
	Meditative
	InstrumentalPop
	InstrumentalRock
	Ethnic
	Gothic
	Darkwave
	TechnoIndustrial
	Electronic
	PopFolk
	Eurodance
	Dream
	SouthernRock
	Comedy
	Cult
	Gangsta
	Top40
	ChristianRap
	PopFunk
	Jungle
	NativeAmerican
	Cabaret
	NewWave
	Psychedelic
	Rave
	Showtunes
	Trailer
	LoFi
	Tribal
	AcidPunk
	AcidJazz
	Polka
	Retro
	Musical
	RockNRoll
	HardRock

	// Winamp extensions.
	Folk
	FolkRock
	NationalFolk
	Swing
	FastFusion
	Bebob
	Latin
	Revival
	Celtic
	Bluegrass
	Avantgarde
	GothicRock
	ProgressiveRock
	PsychedelicRock
	SymphonicRock
	SlowRock
	BigBand
	Chorus
	EasyListening
	Acoustic
	Humour
	Speech
	Chanson
	Opera
	ChamberMusic
	Sonata
	Symphony
	BootyBrass
	Primus
	PornGroove
	Satire
	SlowJam
	Club
	Tango
	Samba
	Folklore
	Ballad
	PowerBallad
	RhythmicSoul
	Freestyle
	Duet
	PunkRock
	DrumSolo
	ACapela
	EuroHouse
	DanceHall

	GoaMusic
	DrumNBass
	ClubHouse
	HardcoreTechno
	Terror
	Indie
	BritPop
	Negerpunk
	PolskPunk
	Beat
	ChristianGangstaRap
	HeavyMetal
	BlackMetal
	Crossover
	ContemporaryChristian
	ChristianRock
	Merengue
	Salsa
	ThrashMetal
	Anime
	Jpop
	SynthPop
	Abstract
	ArtRock
	Baroque
	Bhangra
	BigBeat
	Breakbeat
	Chillout
	Downtempo
	Dub
	EBM
	Eclectic
	Electro
	Electroclash
	Emo
	Experimental
	Garage
	Global
	IDM
	Illbient
	IndustroGoth
	JamBand
	Krautrock
	Leftfield
	Lounge
	MathRock
	NewRomantic
	NuBreakz
	PostPunk
	PostRock
	Psytrance
	Shoegaze
	SpaceRock
	TropRock
	WorldMusic
	Neoclassical
	Audiobook
	AudioTheatre
	NeueDeutscheWelle
	Podcast
	IndieRock
	GFunk
	Dubstep
	GarageRock
	Psybient

	Foreignbard
	NuMetal
	Electronics
	RusRock
	ClassicMetal
	PopRock
	DancePop
	PopDisco
	EuroDisco
	Romantic
	BluesRock
	PopDance
	Pop90s
	Electronic90s
	DarkAlternativeMetal
	IndustrialRock
	DiscoRemix
	DreamPop
	Eurodance90s

	// Count is the number of defined genres, not a genre.
	Count
)

// names is indexed by Genre and must stay in step with the constants above.
var names = [Count]string{
	"Blues", "Classic Rock", "Country", "Dance", "Disco", "Funk",
	"Grunge", "Hip-Hop", "Jazz", "Metal", "New Age", "Oldies", "Other",
	"Pop", "R&B", "Rap", "Reggae", "Rock", "Techno", "Industrial",
	"Alternative", "Ska", "Death Metal", "Pranks", "Soundtrack",
	"Euro-Techno", "Ambient", "Trip-Hop", "Vocal", "Jazz+Funk",
	"Fusion", "Trance", "Classical", "Instrumental", "Acid", "House",
	"Game", "Sound Clip", "Gospel", "Noise", "Alternative Rock", "Bass",
	"Soul", "Punk", "Space", "Meditative", "Instrumental Pop",
	"Instrumental Rock", "Ethnic", "Gothic", "Darkwave",
	"Techno-Industrial", "Electronic", "Pop-Folk", "Eurodance",
	"Dream", "Southern Rock", "Comedy", "Cult", "Gangsta", "Top 40",
	"Christian Rap", "Pop/Funk", "Jungle", "Native American",
	"Cabaret", "New Wave", "Psychedelic", "Rave", "Showtunes",
	"Trailer", "Lo-Fi", "Tribal", "Acid Punk", "Acid Jazz", "Polka",
	"Retro", "Musical", "Rock & Roll", "Hard Rock",

	"Folk", "Folk-Rock", "National Folk", "Swing", "Fast Fusion", "Bebob",
	"Latin", "Revival", "Celtic", "Bluegrass", "Avantgarde",
	"Gothic Rock", "Progressive Rock", "Psychedelic Rock",
	"Symphonic Rock", "Slow Rock", "Big Band", "Chorus", "Easy Listening",
	"Acoustic", "Humour", "Speech", "Chanson", "Opera", "Chamber Music",
	"Sonata", "Symphony", "Booty Brass", "Primus", "Porn Groove",
	"Satire", "Slow Jam", "Club", "Tango", "Samba", "Folklore", "Ballad",
	"Power Ballad", "Rhythmic Soul", "Freestyle", "Duet", "Punk Rock",
	"Drum Solo", "A Capela", "Euro-House", "Dance Hall",

	"Goa Music", "Drum & Bass", "Club-House", "Hardcore Techno",
	"Terror", "Indie", "BritPop", "Negerpunk", "Polsk Punk", "Beat",
	"Christian Gangsta Rap", "Heavy Metal", "Black Metal", "Crossover",
	"Contemporary Christian", "Christian Rock", "Merengue", "Salsa",
	"Thrash Metal", "Anime", "Jpop", "Synthpop", "Abstract", "ArtRock",
	"Baroque", "Bhangra", "Big beat", "Breakbeat", "Chillout",
	"Downtempo", "Dub", "EBM", "Eclectic", "Electro", "Electroclash",
	"Emo", "Experimental", "Garage", "Global", "IDM", "Illbient",
	"Industro-Goth", "JamBand", "Krautrock", "Leftfield", "Lounge",
	"Math Rock", "New Romantic", "Nu-Breakz", "Post-Punk", "Post-Rock",
	"Psytrance", "Shoegaze", "Space Rock", "Trop Rock", "World Music",
	"Neoclassical", "Audiobook", "Audio Theatre", "Neue Deutsche Welle",
	"Podcast", "Indie-Rock", "G-Funk", "Dubstep", "Garage Rock",
	"Psybient",

	"Foreignbard", "Nu Metal", "Electronics", "Rus Rock", "Classic Metal",
	"Pop Rock", "Dance Pop", "Pop Disco", "Euro Disco", "Romantic",
	"Blues Rock", "Pop Dance", "90's Pop", "90's Electronic",
	"Dark Alternative Metal", "Industrial Rock", "Disco Remix",
	"Dream Pop", "Eurodance 90's",
}

// Valid reports whether g is one of the defined genres.
func (g Genre) Valid() bool {
	return g >= 0 && g < Count
}

// String returns the display name, or an empty string for None and
// out-of-range codes.
func (g Genre) String() string {
	if !g.Valid() {
		return ""
	}
	return names[g]
}

func (g Genre) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// Join renders a genre list for display.
func Join(genres []Genre) string {
	parts := make([]string, 0, len(genres))
	for _, g := range genres {
		if s := g.String(); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
