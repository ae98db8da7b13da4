package domain

// Every hall uses the same fixed layout: rows A-J, nine seats per row.
// Seat IDs are row letter followed by column number, e.g. "A3".
const (
	SeatRows           = "ABCDEFGHIJ"
	SeatsPerRow        = 9
	MaxSeatsPerBooking = 5
)

func ValidSeatID(id string) bool {
	if len(id) != 2 {
		return false
	}

	row, col := id[0], id[1]

	if row < SeatRows[0] || row > SeatRows[len(SeatRows)-1] {
		return false
	}

	return col >= '1' && col <= '0'+SeatsPerRow
}

// SeatIDs returns all seat IDs of the layout in row-major order.
func SeatIDs() []string {
	ids := make([]string, 0, len(SeatRows)*SeatsPerRow)

	for _, row := range SeatRows {
		for col := 1; col <= SeatsPerRow; col++ {
			ids = append(ids, string(row)+string(rune('0'+col)))
		}
	}

	return ids
}
