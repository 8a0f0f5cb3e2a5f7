package model

// Subtask ids of the kitchen task decomposition. SubtaskUnknown is the
// undetermined id a hierarchical controller starts from.
const (
	SubtaskGetOnionFromDispenser = iota
	SubtaskGetOnionFromCounter
	SubtaskPutOnionInPot
	SubtaskPutOnionCloser
	SubtaskGetPlateFromDishRack
	SubtaskGetPlateFromCounter
	SubtaskPutPlateCloser
	SubtaskGetSoup
	SubtaskGetSoupFromCounter
	SubtaskPutSoupCloser
	SubtaskServeSoup
	SubtaskUnknown

	NumSubtasks
)

var subtaskNames = [NumSubtasks]string{
	"get_onion_from_dispenser",
	"get_onion_from_counter",
	"put_onion_in_pot",
	"put_onion_closer",
	"get_plate_from_dish_rack",
	"get_plate_from_counter",
	"put_plate_closer",
	"get_soup",
	"get_soup_from_counter",
	"put_soup_closer",
	"serve_soup",
	"unknown",
}

func SubtaskName(id int) string {
	if id < 0 || id >= NumSubtasks {
		return "invalid"
	}
	return subtaskNames[id]
}

// SubtaskID resolves a subtask name; ok is false for unknown names.
func SubtaskID(name string) (int, bool) {
	for id, n := range subtaskNames {
		if n == name {
			return id, true
		}
	}
	return 0, false
}
