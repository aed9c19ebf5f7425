package models

import "time"

// RoomKind is the closed set of schedulable room categories.
type RoomKind string

const (
	RoomKindLectureRoom RoomKind = "LECTURE_ROOM"
	RoomKindSeater120   RoomKind = "SEATER_120"
	RoomKindSeater240   RoomKind = "SEATER_240"
	RoomKindComputerLab RoomKind = "COMPUTER_LAB"
	RoomKindHardwareLab RoomKind = "HARDWARE_LAB"
)

// Room is a persisted physical space the generator can place sessions in.
type Room struct {
	ID        string    `db:"id" json:"id"`
	RoomCode  string    `db:"room_code" json:"room_code"`
	Kind      RoomKind  `db:"kind" json:"kind"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Building  string    `db:"building" json:"building"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoomFilter captures supported filters for listing rooms.
type RoomFilter struct {
	Kind      RoomKind
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
