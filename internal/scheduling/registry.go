package scheduling

import "sort"

// Registry is the read-only collection of rooms and sections built once
// per generation run from the slices the caller read from the repositories. It never mutates
// the underlying tables; it only answers lookup queries for the engine.
type Registry struct {
	rooms       []Room
	roomsByKind map[RoomKind][]Room
	nonLabRooms []Room
	sections    map[string]Section
}

// NewRegistry indexes rooms by kind (ascending capacity) and sections by id.
func NewRegistry(rooms []Room, sections []Section) *Registry {
	r := &Registry{
		rooms:       append([]Room(nil), rooms...),
		roomsByKind: make(map[RoomKind][]Room),
		sections:    make(map[string]Section, len(sections)),
	}
	for _, room := range rooms {
		r.roomsByKind[room.Kind] = append(r.roomsByKind[room.Kind], room)
		if !room.Kind.IsLabKind() {
			r.nonLabRooms = append(r.nonLabRooms, room)
		}
	}
	for kind := range r.roomsByKind {
		bucket := r.roomsByKind[kind]
		sort.Slice(bucket, func(i, j int) bool { return bucket[i].Capacity < bucket[j].Capacity })
		r.roomsByKind[kind] = bucket
	}
	sort.Slice(r.nonLabRooms, func(i, j int) bool { return r.nonLabRooms[i].Capacity < r.nonLabRooms[j].Capacity })
	for _, s := range sections {
		r.sections[s.SectionID] = s
	}
	return r
}

// Section looks up a Section by id.
func (r *Registry) Section(id string) (Section, bool) {
	s, ok := r.sections[id]
	return s, ok
}

// LabKindFor resolves which lab room kind a course's sessions require.
func LabKindFor(softwareLab bool) RoomKind {
	if softwareLab {
		return ComputerLab
	}
	return HardwareLab
}

// RoomsFor returns rooms of kind ordered by ascending capacity, starting
// from the smallest capacity >= minCapacity ("tightest fit first"). If no
// room of the kind meets minCapacity, the single largest room of that kind
// is returned and capacityShortfall is true so the caller can attach a
// CapacityWarning.
func (r *Registry) RoomsFor(kind RoomKind, minCapacity int) (candidates []Room, capacityShortfall bool) {
	bucket := r.roomsByKind[kind]
	if len(bucket) == 0 {
		return nil, true
	}
	for _, room := range bucket {
		if room.Capacity >= minCapacity {
			candidates = append(candidates, room)
		}
	}
	if len(candidates) > 0 {
		return candidates, false
	}
	return []Room{bucket[len(bucket)-1]}, true
}

// NonLabRooms returns all lecture-eligible rooms (LectureRoom, Seater120,
// Seater240 merged) ordered by ascending capacity, starting from the
// smallest capacity >= minCapacity. Lecture and Tutorial sessions may use
// any non-lab kind, so they search this merged pool instead of a single
// room kind. Falls back to the single largest non-lab room with
// capacityShortfall=true if none meets minCapacity.
func (r *Registry) NonLabRooms(minCapacity int) (candidates []Room, capacityShortfall bool) {
	if len(r.nonLabRooms) == 0 {
		return nil, true
	}
	for _, room := range r.nonLabRooms {
		if room.Capacity >= minCapacity {
			candidates = append(candidates, room)
		}
	}
	if len(candidates) > 0 {
		return candidates, false
	}
	return []Room{r.nonLabRooms[len(r.nonLabRooms)-1]}, true
}

// RoomByID finds a single room by its business id, used for fixed_room
// courses that pin a specific room regardless of capacity ordering.
func (r *Registry) RoomByID(id string) (Room, bool) {
	for _, room := range r.rooms {
		if room.ID == id {
			return room, true
		}
	}
	return Room{}, false
}
