package models

import "time"

// Room is reference data: seeded once from configs/rooms.yaml and rarely changed.
type Room struct {
	ID          string    `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	BedOnly     int64     `yaml:"bed_only" json:"bed_only"`
	BB          int64     `yaml:"bb" json:"bb"`
	HalfBoard   int64     `yaml:"half_board" json:"half_board"`
	FullBoard   int64     `yaml:"full_board" json:"full_board"`
	Capacity    int       `yaml:"capacity" json:"capacity"`
	Amenities   []string  `yaml:"amenities" json:"amenities"`
	ImageURL    string    `yaml:"image_url" json:"image_url,omitempty"`
	CreatedAt   time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updated_at"`
}

// Price is the nightly rate used for totals and catalog ordering.
func (r *Room) Price() int64 {
	return r.FullBoard
}

// RoomAvailability annotates a catalog entry for a requested stay.
type RoomAvailability struct {
	Room
	Price     int64 `json:"price"`
	Available bool  `json:"available"`
}

const imageBucket = "https://jekjzdfuuudzdmdmzyjw.supabase.co/storage/v1/object/public/imagesbucket/"

// FallbackRooms returns the fixed catalog served when the live store is unreachable
// or has no rooms.
func FallbackRooms() []*Room {
	return []*Room{
		{
			ID:          "1",
			Name:        "Single Room",
			Description: "Ideal for solo travelers. Includes one bed and access to essential amenities.",
			BedOnly:     1000,
			BB:          1200,
			HalfBoard:   2500,
			FullBoard:   3500,
			Capacity:    1,
			Amenities:   []string{"TV", "Desk", "Free Wi-Fi", "Private Bathroom", "Wardrobe"},
			ImageURL:    imageBucket + "ACKbed.jpeg",
		},
		{
			ID:          "2",
			Name:        "Double Room",
			Description: "Perfect for couples or friends. Comes with a double bed and cozy atmosphere.",
			BedOnly:     1200,
			BB:          1500,
			HalfBoard:   2800,
			FullBoard:   4300,
			Capacity:    2,
			Amenities:   []string{"Desk", "Wardrobe", "Private Bathroom", "Free Wi-Fi", "TV", "Mini Fridge"},
			ImageURL:    imageBucket + "ACKbedmain.jpeg",
		},
		{
			ID:          "3",
			Name:        "Double Room + Extra Bed",
			Description: "Spacious enough for a small family or group. Includes an additional bed for extra comfort.",
			BedOnly:     2500,
			BB:          2900,
			HalfBoard:   4300,
			FullBoard:   6300,
			Capacity:    3,
			Amenities:   []string{"Desk", "Wardrobe", "Private Bathroom", "Free Wi-Fi", "TV", "Mini Fridge", "Seating Area"},
			ImageURL:    imageBucket + "ACKbed3.jpeg",
		},
	}
}
