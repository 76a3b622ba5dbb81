package genre

// Instruments is every instrument label known to the default table. The
// wildcard genre draws from all of them.
var Instruments = []string{
	"Hi-hat", "Saxophone", "Trumpet", "Glockenspiel", "Cello", "Clarinet",
	"Snare_drum", "Oboe", "Flute", "Chime", "Bass_drum", "Harmonica", "Gong",
	"Double_bass", "Tambourine", "Cowbell", "Electric_piano", "Acoustic_guitar",
	"Violin_or_fiddle", "Finger_snapping", "Vocal", "Guitar", "Drums", "Piano",
	"Organ", "Electric_guitar", "Tuba", "Bassoon", "Drum", "Percussion_Other",
	"Percussive_Bells", "Shaker", "Cymbal", "Whistle", "Triangle", "Wind_chimes",
	"Woodblock", "French_horn", "Trombone", "Mandolin", "Contrabassoon",
	"English_horn", "Violin", "Viola", "Banjo",
}

// DefaultProfiles returns the built-in genre profiles.
func DefaultProfiles() []Profile {
	return []Profile{
		{Name: "jazz", Shaping: ShapeJazz, Instruments: []string{
			"Saxophone", "Trumpet", "Double_bass", "Clarinet", "Trombone", "Snare_drum", "Bass_drum", "Piano", "Electric_piano",
		}},
		{Name: "classical", Shaping: ShapeClassical, Instruments: []string{
			"Violin", "Viola", "Cello", "Double_bass", "Flute", "Oboe", "Clarinet", "Bassoon", "Contrabassoon",
			"English_horn", "French_horn", "Trombone", "Tuba", "Organ", "Piano", "Glockenspiel", "Percussive_Bells",
		}},
		{Name: "rock", Shaping: ShapeRock, Instruments: []string{
			"Electric_guitar", "Drums", "Bass_drum", "Snare_drum", "Electric_piano", "Acoustic_guitar", "Piano",
		}},
		{Name: "blues", Shaping: ShapeBlues, Instruments: []string{
			"Harmonica", "Acoustic_guitar", "Electric_guitar", "Piano", "Drums",
		}},
		{Name: "folk", Shaping: ShapeFolk, Instruments: []string{
			"Acoustic_guitar", "Banjo", "Mandolin", "Violin_or_fiddle", "Harmonica",
		}},
		{Name: "electronic", Shaping: ShapeElectronic, Instruments: []string{
			"Electric_piano", "Synthesizer", "Drum_machine",
		}},
		{Name: "world", Shaping: ShapeWorld, Instruments: []string{
			"Shaker", "Gong", "Wind_chimes", "Woodblock", "Triangle", "Tambourine", "Drums", "Percussion_Other",
		}},
		{Name: "wildcard", Shaping: ShapeWildcard, Instruments: append([]string(nil), Instruments...)},
		{Name: "pop", Shaping: ShapePop, Instruments: []string{
			"Vocal", "Electric_guitar", "Acoustic_guitar", "Piano", "Electric_piano", "Synthesizer", "Drums",
			"Bass_drum", "Snare_drum", "Finger_snapping", "Guitar",
		}},
	}
}

// DefaultGeneralLabels returns the built-in instrument → general label map.
func DefaultGeneralLabels() map[string]string {
	return map[string]string{
		"Snare_drum": "Snare_drum", "Bass_drum": "Bass_drum", "Hi-hat": "Hi-hat",
		"Tambourine": "Tambourine", "Gong": "Gong", "Cowbell": "Cowbell",
		"Violin_or_fiddle": "Violin_or_fiddle", "Cello": "Cello", "Double_bass": "Bass",
		"Acoustic_guitar": "Acoustic_guitar", "Guitar": "Guitar", "Electric_guitar": "Electric_guitar",
		"Electric_piano": "Electric_piano", "Flute": "Flute", "Clarinet": "Clarinet", "Oboe": "Oboe",
		"Saxophone": "Saxophone", "Trumpet": "Trumpet", "Trombone": "Trombone", "Harmonica": "Harmonica",
		"Glockenspiel": "Glockenspiel", "Chime": "Chime", "Synthesizer": "Synthesizer",
		"Drum_machine": "Drums", "Finger_snapping": "Finger_snapping", "Vocal": "Vocal",
		"Piano": "Piano", "Organ": "Organ", "Drums": "Drums",
	}
}

// Default returns the built-in table.
func Default() *Table {
	t, err := NewTable(DefaultProfiles(), DefaultGeneralLabels())
	if err != nil {
		panic("genre: invalid default table: " + err.Error())
	}
	return t
}
