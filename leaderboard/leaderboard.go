// Package leaderboard normalizes the private leaderboard JSON published by
// Advent of Code into a strict model.
//
// The upstream document is loosely typed:
//
//	{
//	    "event": "2020",
//	    "owner_id": "273465",
//	    "members": {
//	        "273465": {
//	            "id": "273465",
//	            "completion_day_level": {
//	                "4": {
//	                    "1": {"get_star_ts": 1607071035},
//	                    "2": {"get_star_ts": "1607072594"}
//	                }
//	            },
//	            "name": "Andreas Runfalk",
//	            "local_score": 751
//	        }
//	    }
//	}
//
// Integers may arrive as JSON numbers or as numeric strings. A day without any
// star is missing from completion_day_level, a day with only the first star
// has no "2" entry and anonymous members have no name.
package leaderboard

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	// FirstDay and LastDay bound the puzzle days of an event.
	FirstDay = 1
	LastDay  = 25
)

// Leaderboard is a normalized private leaderboard.
type Leaderboard struct {
	Event   int
	Members map[int]*Member
}

// Member is a single participant of a leaderboard.
type Member struct {
	ID int
	// Name is nil for anonymous participants.
	Name               *string
	CompletionDayLevel map[int]*Day
}

// Day holds the completion times of both parts of a puzzle.
type Day struct {
	Part1 time.Time
	// Part2 is nil until the second star is obtained.
	Part2 *time.Time
}

// Parse normalizes a raw leaderboard document. Any unexpected shape is
// reported as a *MalformedError.
func Parse(data []byte) (*Leaderboard, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &MalformedError{Field: "$", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if doc == nil {
		return nil, &MalformedError{Field: "$", Value: "null", Reason: "expected object"}
	}

	rawEvent, ok := doc["event"]
	if !ok {
		return nil, &MalformedError{Field: "event", Reason: "missing field"}
	}
	event, err := decodeInt("event", rawEvent)
	if err != nil {
		return nil, err
	}

	rawMembers, ok := doc["members"]
	if !ok {
		return nil, &MalformedError{Field: "members", Reason: "missing field"}
	}
	members, err := decodeObject("members", rawMembers)
	if err != nil {
		return nil, err
	}

	lb := &Leaderboard{
		Event:   event,
		Members: make(map[int]*Member, len(members)),
	}
	for key, raw := range members {
		field := "members." + key
		id, err := decodeKey(field, key)
		if err != nil {
			return nil, err
		}
		member, err := parseMember(field, raw)
		if err != nil {
			return nil, err
		}
		if member.ID != id {
			return nil, &MalformedError{
				Field:  field + ".id",
				Value:  strconv.Itoa(member.ID),
				Reason: fmt.Sprintf("does not match member key %d", id),
			}
		}
		lb.Members[id] = member
	}

	return lb, nil
}

func parseMember(field string, raw json.RawMessage) (*Member, error) {
	obj, err := decodeObject(field, raw)
	if err != nil {
		return nil, err
	}

	rawID, ok := obj["id"]
	if !ok {
		return nil, &MalformedError{Field: field + ".id", Reason: "missing field"}
	}
	id, err := decodeInt(field+".id", rawID)
	if err != nil {
		return nil, err
	}

	member := &Member{
		ID:                 id,
		CompletionDayLevel: make(map[int]*Day),
	}

	if rawName, ok := obj["name"]; ok && !isNull(rawName) {
		var name string
		if err := json.Unmarshal(rawName, &name); err != nil {
			return nil, &MalformedError{Field: field + ".name", Value: snippet(rawName), Reason: "expected string"}
		}
		member.Name = &name
	}

	// Members that never solved anything may come without the map at all.
	rawDays, ok := obj["completion_day_level"]
	if !ok || isNull(rawDays) {
		return member, nil
	}
	days, err := decodeObject(field+".completion_day_level", rawDays)
	if err != nil {
		return nil, err
	}
	for key, rawDay := range days {
		dayField := field + ".completion_day_level." + key
		day, err := decodeKey(dayField, key)
		if err != nil {
			return nil, err
		}
		if day < FirstDay || day > LastDay {
			return nil, &MalformedError{Field: dayField, Value: key, Reason: "day out of range 1-25"}
		}
		progress, err := parseDay(dayField, rawDay)
		if err != nil {
			return nil, err
		}
		member.CompletionDayLevel[day] = progress
	}

	return member, nil
}

func parseDay(field string, raw json.RawMessage) (*Day, error) {
	obj, err := decodeObject(field, raw)
	if err != nil {
		return nil, err
	}

	rawPart1, ok := obj["1"]
	if !ok {
		return nil, &MalformedError{Field: field + ".1", Reason: "missing first part"}
	}
	part1, err := parseProgress(field+".1", rawPart1)
	if err != nil {
		return nil, err
	}

	day := &Day{Part1: part1}
	if rawPart2, ok := obj["2"]; ok {
		part2, err := parseProgress(field+".2", rawPart2)
		if err != nil {
			return nil, err
		}
		day.Part2 = &part2
	}
	return day, nil
}

// parseProgress reads {"get_star_ts": <ts>} into an absolute UTC time.
func parseProgress(field string, raw json.RawMessage) (time.Time, error) {
	obj, err := decodeObject(field, raw)
	if err != nil {
		return time.Time{}, err
	}
	rawTS, ok := obj["get_star_ts"]
	if !ok {
		return time.Time{}, &MalformedError{Field: field + ".get_star_ts", Reason: "missing field"}
	}
	ts, err := decodeInt(field+".get_star_ts", rawTS)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(ts), 0).UTC(), nil
}
