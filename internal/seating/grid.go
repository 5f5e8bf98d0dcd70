// Package seating models the seat picker for onsite events: a venue's
// capacity is split into fixed-size floors for paging, and a selection
// toggles over a snapshot of already-booked seats. The snapshot is taken
// once per enrollment session; the booking service re-validates the seat
// at enroll time, so a stale snapshot only surfaces as a late rejection.
package seating

import "fmt"

// SeatsPerFloor is the fixed page size of the seat grid.
const SeatsPerFloor = 100

type SeatState string

const (
	SeatAvailable SeatState = "AVAILABLE"
	SeatBooked    SeatState = "BOOKED"
	SeatSelected  SeatState = "SELECTED"
)

// Grid is a snapshot of one event's seat availability.
type Grid struct {
	capacity int
	booked   map[int]bool
	selected int // 0 means none
}

// NewGrid builds a grid over the given capacity and booked-seat snapshot.
// Booked seat numbers outside 1..capacity are ignored.
func NewGrid(capacity int, bookedSeats []int) *Grid {
	booked := make(map[int]bool, len(bookedSeats))
	for _, s := range bookedSeats {
		if s >= 1 && s <= capacity {
			booked[s] = true
		}
	}
	return &Grid{capacity: capacity, booked: booked}
}

// Capacity returns the total number of seats.
func (g *Grid) Capacity() int { return g.capacity }

// Floors returns the number of floor pages, ceil(capacity / SeatsPerFloor).
func (g *Grid) Floors() int {
	if g.capacity <= 0 {
		return 0
	}
	return (g.capacity + SeatsPerFloor - 1) / SeatsPerFloor
}

// FloorRange returns the inclusive seat number bounds of a floor.
func (g *Grid) FloorRange(floor int) (start, end int, err error) {
	if floor < 1 || floor > g.Floors() {
		return 0, 0, fmt.Errorf("floor %d out of range 1..%d", floor, g.Floors())
	}
	start = (floor-1)*SeatsPerFloor + 1
	end = floor * SeatsPerFloor
	if end > g.capacity {
		end = g.capacity
	}
	return start, end, nil
}

// State reports the state of one seat.
func (g *Grid) State(seat int) SeatState {
	switch {
	case g.booked[seat]:
		return SeatBooked
	case g.selected == seat:
		return SeatSelected
	default:
		return SeatAvailable
	}
}

// Toggle selects a seat, deselects it when it is already the selection, or
// replaces the current selection with a different seat. Booked seats and
// seats outside the grid never change the selection.
func (g *Grid) Toggle(seat int) {
	if seat < 1 || seat > g.capacity || g.booked[seat] {
		return
	}
	if g.selected == seat {
		g.selected = 0
		return
	}
	g.selected = seat
}

// Selected returns the chosen seat number, or 0 when nothing is selected.
func (g *Grid) Selected() int { return g.selected }

// Confirm returns the chosen seat. It fails when no seat is selected.
func (g *Grid) Confirm() (int, error) {
	if g.selected == 0 {
		return 0, fmt.Errorf("no seat selected")
	}
	return g.selected, nil
}

// Available reports whether a seat can be selected against this snapshot.
func Available(seat, capacity int, bookedSeats []int) bool {
	g := NewGrid(capacity, bookedSeats)
	g.Toggle(seat)
	_, err := g.Confirm()
	return err == nil
}

// FloorView is one page of the seat picker.
type FloorView struct {
	Floor  int   `json:"floor"`
	Start  int   `json:"start"`
	End    int   `json:"end"`
	Booked []int `json:"booked_seats,omitempty"`
}

// View is the full picker model: paged floors over the booked-seat
// snapshot with the current selection marked.
type View struct {
	Capacity int         `json:"capacity"`
	Selected *int        `json:"selected_seat,omitempty"`
	Floors   []FloorView `json:"floors"`
}

// BuildView renders the picker for a capacity, booked snapshot and current
// selection. A selection that is booked or out of range is dropped rather
// than rendered.
func BuildView(capacity int, bookedSeats []int, selected *int) View {
	g := NewGrid(capacity, bookedSeats)
	if selected != nil {
		g.Toggle(*selected)
	}
	view := View{Capacity: g.Capacity()}
	for floor := 1; floor <= g.Floors(); floor++ {
		start, end, err := g.FloorRange(floor)
		if err != nil {
			break
		}
		fv := FloorView{Floor: floor, Start: start, End: end}
		for seat := start; seat <= end; seat++ {
			switch g.State(seat) {
			case SeatBooked:
				fv.Booked = append(fv.Booked, seat)
			case SeatSelected:
				chosen := seat
				view.Selected = &chosen
			}
		}
		view.Floors = append(view.Floors, fv)
	}
	return view
}
